package conversations_test

import (
	"time"

	. "github.com/pchaganti/px-zuckerman-sub001/core/conversations"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

var _ = Describe("Tracker", func() {
	var (
		now     time.Time
		tracker *Tracker
	)

	BeforeEach(func() {
		now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		tracker = NewTracker(time.Hour).WithClock(func() time.Time { return now })
	})

	It("keeps messages in order with their metadata", func() {
		calls := []openai.ToolCall{{ID: "c1", Type: openai.ToolTypeFunction}}
		tracker.AddMessage("conv", types.RoleUser, "hi", types.MessageMeta{RunID: "r1"})
		tracker.AddMessage("conv", types.RoleAssistant, "", types.MessageMeta{ToolCalls: calls})
		tracker.AddMessage("conv", types.RoleTool, "42", types.MessageMeta{ToolCallID: "c1"})

		msgs := tracker.GetConversation("conv")
		Expect(msgs).To(HaveLen(3))
		Expect(msgs[0].RunID).To(Equal("r1"))
		Expect(msgs[1].ToolCalls).To(Equal(calls))
		Expect(msgs[2].ToolCallID).To(Equal("c1"))
		Expect(msgs[2].CreatedAt).To(Equal(now))
		Expect(tracker.GetConversation("other")).To(BeEmpty())
	})

	It("returns copies", func() {
		tracker.AddMessage("conv", types.RoleUser, "hi", types.MessageMeta{})
		msgs := tracker.GetConversation("conv")
		msgs[0].Content = "changed"
		Expect(tracker.GetConversation("conv")[0].Content).To(Equal("hi"))
	})

	It("drops idle conversations", func() {
		tracker.AddMessage("old", types.RoleUser, "hi", types.MessageMeta{})
		now = now.Add(30 * time.Minute)
		tracker.AddMessage("fresh", types.RoleUser, "hi", types.MessageMeta{})
		now = now.Add(45 * time.Minute)

		Expect(tracker.GetConversation("old")).To(BeEmpty())
		Expect(tracker.GetConversation("fresh")).To(HaveLen(1))
	})

	It("keeps conversations forever without expiry", func() {
		forever := NewTracker(0).WithClock(func() time.Time { return now })
		forever.AddMessage("conv", types.RoleUser, "hi", types.MessageMeta{})
		now = now.Add(24 * 365 * time.Hour)
		Expect(forever.GetConversation("conv")).To(HaveLen(1))
	})

	It("replaces and resets conversations", func() {
		tracker.SetConversation("conv", []types.Message{{Role: types.RoleUser, Content: "a"}, {Role: types.RoleAssistant, Content: "b"}})
		Expect(tracker.GetConversation("conv")).To(HaveLen(2))
		tracker.Reset("conv")
		Expect(tracker.GetConversation("conv")).To(BeEmpty())
	})
})
