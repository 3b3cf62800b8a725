package evaluators_test

import (
	"context"
	"errors"

	. "github.com/pchaganti/px-zuckerman-sub001/core/evaluators"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func answering(content string) llm.Reasoner {
	return llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content}, nil
	})
}

var _ = Describe("Evaluators", func() {
	ctx := context.Background()

	DescribeTable("opt-out rule applies to every role",
		func(name string) {
			lowConfidence, err := ByName(answering(`{"confidence":0.09,"priority":9,"payload":{"x":1},"reasoning":"r"}`), name)
			Expect(err).ToNot(HaveOccurred())
			Expect(lowConfidence[0].Evaluate(ctx, "hi", "state")).To(BeNil())

			emptyPayload, err := ByName(answering(`{"confidence":0.95,"priority":9,"payload":{},"reasoning":"r"}`), name)
			Expect(err).ToNot(HaveOccurred())
			Expect(emptyPayload[0].Evaluate(ctx, "hi", "state")).To(BeNil())
		},
		Entry("interaction", Interaction),
		Entry("memory", Memory),
		Entry("planning", Planning),
		Entry("attention", Attention),
		Entry("reflection", Reflection),
		Entry("creativity", Creativity),
		Entry("criticism", Criticism),
	)

	It("turns a confident judgment into a proposal", func() {
		e := NewInteraction(answering("```json\n{\"confidence\":0.8,\"priority\":7,\"payload\":{\"shouldRespond\":true},\"reasoning\":\"greeting\"}\n```"))
		p := e.Evaluate(ctx, "hello", "state")
		Expect(p).ToNot(BeNil())
		Expect(p.Module).To(Equal(Interaction))
		Expect(p.Confidence).To(Equal(0.8))
		Expect(p.Priority).To(Equal(7))
		Expect(p.Payload).To(HaveKeyWithValue("shouldRespond", true))
		Expect(p.Reasoning).To(Equal("greeting"))
	})

	It("clamps confidence and priority", func() {
		p := NewCriticism(answering(`{"confidence":3,"priority":42,"payload":{"issues":["a"]}}`)).Evaluate(ctx, "m", "s")
		Expect(p).ToNot(BeNil())
		Expect(p.Confidence).To(Equal(1.0))
		Expect(p.Priority).To(Equal(10))

		p = NewCriticism(answering(`{"confidence":0.5,"priority":-3,"payload":{"issues":["a"]}}`)).Evaluate(ctx, "m", "s")
		Expect(p.Priority).To(Equal(0))
	})

	It("is absent when the reasoner fails", func() {
		failing := llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
			return nil, errors.New("timeout")
		})
		Expect(NewPlanning(failing).Evaluate(ctx, "m", "s")).To(BeNil())
	})

	It("is absent when the output is malformed", func() {
		Expect(NewMemory(answering("I think you should remember that")).Evaluate(ctx, "m", "s")).To(BeNil())
	})

	It("is absent without a reasoner", func() {
		Expect(NewReflection(nil).Evaluate(ctx, "m", "s")).To(BeNil())
	})

	It("sends the user message and snapshot to the reasoner", func() {
		var seen llm.Request
		r := llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
			seen = req
			return &llm.Response{Content: `{"confidence":0}`}, nil
		})
		NewAttention(r).Evaluate(ctx, "deploy now", "Goals: none")
		Expect(seen.Messages).To(HaveLen(2))
		Expect(seen.Messages[1].Content).To(ContainSubstring("deploy now"))
		Expect(seen.Messages[1].Content).To(ContainSubstring("Goals: none"))
		Expect(seen.ResponseFormat).ToNot(BeNil())
	})

	Context("creativity", func() {
		It("is absent without identified failures even when confident", func() {
			p := NewCreativity(answering(`{"confidence":0.9,"priority":8,"payload":{"failuresIdentified":[],"proposedSolutions":["retry differently"]}}`)).Evaluate(ctx, "m", "s")
			Expect(p).To(BeNil())
		})

		It("is absent without proposed solutions", func() {
			p := NewCreativity(answering(`{"confidence":0.9,"priority":8,"payload":{"failuresIdentified":["search failed"],"proposedSolutions":[""]}}`)).Evaluate(ctx, "m", "s")
			Expect(p).To(BeNil())
		})

		It("caps proposed solutions at three", func() {
			p := NewCreativity(answering(`{"confidence":0.9,"priority":8,"payload":{"failuresIdentified":["search failed"],"proposedSolutions":["a","b","c","d","e"]}}`)).Evaluate(ctx, "m", "s")
			Expect(p).ToNot(BeNil())
			Expect(p.Payload["proposedSolutions"]).To(Equal([]string{"a", "b", "c"}))
			Expect(p.Payload["failuresIdentified"]).To(Equal([]string{"search failed"}))
		})
	})

	Context("construction", func() {
		It("builds every role by default", func() {
			names := []string{}
			for _, e := range Defaults(nil) {
				names = append(names, e.Name())
			}
			Expect(names).To(Equal(Names))
		})

		It("builds a subset once per name", func() {
			es, err := ByName(nil, "Planning", "criticism", "planning")
			Expect(err).ToNot(HaveOccurred())
			Expect(es).To(HaveLen(2))
			Expect(es[0].Name()).To(Equal(Planning))
		})

		It("rejects unknown roles", func() {
			_, err := ByName(nil, "oracle")
			Expect(err).To(MatchError(ContainSubstring("oracle")))
		})
	})
})
