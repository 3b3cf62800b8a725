package attention_test

import (
	"context"
	"fmt"

	. "github.com/pchaganti/px-zuckerman-sub001/core/attention"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Attention policy", func() {
	focused := func(urgency types.Urgency, task string, turns int) *Controller {
		c := NewController(scriptedReasoner(
			fmt.Sprintf(`{"urgency":%q}`, urgency),
			fmt.Sprintf(`{"topic":"deploy","task":%q,"focusLevel":"narrow","isContinuation":true}`, task),
		))
		for i := 0; i < turns; i++ {
			c.ProcessMessage(context.Background(), "msg", "agent", "")
		}
		return c
	}

	Context("filter criteria", func() {
		It("uses the base relevance without focus", func() {
			c := NewController(nil)
			Expect(c.FilterCriteria("agent")).To(Equal(types.FilterCriteria{MinRelevance: 0.3}))
		})

		DescribeTable("scales relevance with urgency",
			func(urgency types.Urgency, expected float64) {
				criteria := focused(urgency, "rollback", 1).FilterCriteria("agent")
				Expect(criteria.Topic).To(Equal("deploy"))
				Expect(criteria.Task).To(Equal("rollback"))
				Expect(criteria.MinRelevance).To(BeNumerically("~", expected, 1e-9))
			},
			Entry("low", types.UrgencyLow, 0.3),
			Entry("medium", types.UrgencyMedium, 0.4),
			Entry("high", types.UrgencyHigh, 0.5),
			Entry("critical", types.UrgencyCritical, 0.6),
		)
	})

	Context("allocation", func() {
		It("uses the medium row without focus", func() {
			Expect(NewController(nil).Allocate("agent")).To(Equal(types.Allocation{
				Limit:       8,
				MemoryTypes: []string{MemorySemantic, MemoryEpisodic},
			}))
		})

		It("grows the limit with sustained focus and adds working memory for a task", func() {
			a := focused(types.UrgencyMedium, "rollback", 5).Allocate("agent")
			// ceil(8 * (1 + 0.5*0.2)) = ceil(8.8)
			Expect(a.Limit).To(Equal(9))
			Expect(a.MemoryTypes).To(Equal([]string{MemorySemantic, MemoryEpisodic, MemoryWorking}))
		})

		It("caps the focus bonus at ten turns", func() {
			a := focused(types.UrgencyHigh, "", 15).Allocate("agent")
			// ceil(12 * 1.2) = ceil(14.4)
			Expect(a.Limit).To(Equal(15))
			Expect(a.MemoryTypes).To(Equal([]string{MemorySemantic, MemoryEpisodic, MemoryProcedural}))
		})

		It("gives critical traffic every memory type", func() {
			a := focused(types.UrgencyCritical, "", 1).Allocate("agent")
			Expect(a.MemoryTypes).To(HaveLen(5))
			// ceil(20 * 1.02) = ceil(20.4)
			Expect(a.Limit).To(Equal(21))
		})

		It("gives low traffic a single memory type", func() {
			a := focused(types.UrgencyLow, "", 1).Allocate("agent")
			Expect(a.MemoryTypes).To(Equal([]string{MemorySemantic}))
			// ceil(4 * 1.02) = ceil(4.08)
			Expect(a.Limit).To(Equal(5))
		})
	})
})
