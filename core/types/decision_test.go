package types_test

import (
	"encoding/json"

	. "github.com/pchaganti/px-zuckerman-sub001/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func decode(raw string) Decision {
	var d Decision
	ExpectWithOffset(1, json.Unmarshal([]byte(raw), &d)).To(Succeed())
	return d
}

var _ = Describe("Decision", func() {
	It("accepts a single action and a single payload", func() {
		d := decode(`{"action":"respond","payload":{"message":"hi"}}`)
		Expect(d.Actions).To(Equal(ActionList{ActionRespond}))
		Expect(d.Payloads).To(HaveLen(1))
		Expect(d.PayloadFor(0)).To(HaveKeyWithValue("message", "hi"))
	})

	It("pairs actions with payloads by position", func() {
		d := decode(`{"action":["call_tool","respond"],"payload":[{"tool":"echo"},{"message":"done"}]}`)
		Expect(d.Actions).To(Equal(ActionList{ActionCallTool, ActionRespond}))
		Expect(d.PayloadFor(0)).To(HaveKeyWithValue("tool", "echo"))
		Expect(d.PayloadFor(1)).To(HaveKeyWithValue("message", "done"))
	})

	It("reuses the first payload when there are fewer payloads than actions", func() {
		d := decode(`{"action":["call_tool","respond"],"payload":{"tool":"echo"}}`)
		Expect(d.PayloadFor(1)).To(HaveKeyWithValue("tool", "echo"))
	})

	It("returns an empty payload when none was given", func() {
		d := decode(`{"action":"termination"}`)
		Expect(d.PayloadFor(0)).ToNot(BeNil())
		Expect(d.PayloadFor(0)).To(BeEmpty())
	})

	It("rejects malformed action lists", func() {
		var d Decision
		Expect(json.Unmarshal([]byte(`{"action":{"kind":"respond"}}`), &d)).ToNot(Succeed())
	})

	DescribeTable("normalizes actions",
		func(in, expected ActionList) {
			Expect(in.Normalize()).To(Equal(expected))
		},
		Entry("keeps known actions in order", ActionList{ActionDecompose, ActionRespond}, ActionList{ActionDecompose, ActionRespond}),
		Entry("drops unknown actions", ActionList{"dance", ActionCallTool}, ActionList{ActionCallTool}),
		Entry("defaults to respond", ActionList{"dance"}, ActionList{ActionRespond}),
		Entry("defaults to respond when empty", ActionList{}, ActionList{ActionRespond}),
	)

	Context("state updates", func() {
		It("distinguishes absent from empty lists", func() {
			d := decode(`{"action":"respond","stateUpdates":{"memories":[]}}`)
			Expect(d.StateUpdates.Memories).ToNot(BeNil())
			Expect(d.StateUpdates.Memories).To(BeEmpty())
			Expect(d.StateUpdates.Goals).To(BeNil())
			Expect(d.StateUpdates.IsEmpty()).To(BeFalse())

			Expect(decode(`{"action":"respond"}`).StateUpdates.IsEmpty()).To(BeTrue())
		})

		It("accepts bare strings for goals and memories", func() {
			d := decode(`{"action":"respond","stateUpdates":{"goals":["ship it",{"description":"test it","status":"active"}],"memories":["likes tea"]}}`)
			Expect(d.StateUpdates.Goals).To(HaveLen(2))
			Expect(d.StateUpdates.Goals[0].Description).To(Equal("ship it"))
			Expect(d.StateUpdates.Goals[1].Status).To(Equal("active"))
			Expect(d.StateUpdates.Memories[0].Content).To(Equal("likes tea"))
		})
	})
})

var _ = Describe("Proposal", func() {
	DescribeTable("opt-out rule",
		func(p Proposal, contributes bool) {
			Expect(p.Contributes()).To(Equal(contributes))
		},
		Entry("confident with payload", Proposal{Confidence: 0.1, Payload: ActionParams{"a": 1}}, true),
		Entry("below threshold", Proposal{Confidence: 0.09, Payload: ActionParams{"a": 1}}, false),
		Entry("empty payload", Proposal{Confidence: 0.9, Payload: ActionParams{}}, false),
	)
})

var _ = Describe("WorkingMemory", func() {
	It("copies do not share backing arrays", func() {
		w := WorkingMemory{Goals: []Goal{{Description: "a"}}, Memories: []MemoryItem{{Content: "b"}}}
		c := w.Copy()
		c.Goals[0].Description = "changed"
		c.Memories[0].Content = "changed"
		Expect(w.Goals[0].Description).To(Equal("a"))
		Expect(w.Memories[0].Content).To(Equal("b"))
	})
})

var _ = Describe("RunRequest", func() {
	It("generates a run id unless one is given", func() {
		r := NewRunRequest("hi", WithConversationID("c"))
		Expect(r.RunID).ToNot(BeEmpty())
		Expect(r.ConversationID).To(Equal("c"))
		Expect(NewRunRequest("hi", WithRunID("r1")).RunID).To(Equal("r1"))
	})

	It("last assistant text skips tool-call only entries", func() {
		m, ok := LastAssistantMessage([]Message{
			{Role: RoleAssistant, Content: "first"},
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, Content: ""},
		})
		Expect(ok).To(BeTrue())
		Expect(m.Content).To(Equal("first"))
	})
})
