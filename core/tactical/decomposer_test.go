package tactical_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func answering(content string) llm.Reasoner {
	return llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content}, nil
	})
}

var _ = Describe("Decomposer", func() {
	ctx := context.Background()

	It("falls back to one step titled with the input when the reasoner fails", func() {
		d := NewDecomposer(llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
			return nil, errors.New("connection reset")
		}))
		steps := d.Decompose(ctx, "renew the TLS certificate", types.UrgencyHigh)
		Expect(steps).To(Equal([]TaskStep{{Title: "renew the TLS certificate"}}))
	})

	It("falls back when no usable step comes back", func() {
		steps := NewDecomposer(answering(`{"steps":[{"title":"  "}]}`)).Decompose(ctx, "x", types.UrgencyLow)
		Expect(steps).To(Equal([]TaskStep{{Title: "x"}}))
	})

	It("parses steps with confirmation flags", func() {
		var prompt string
		answer := `{"steps":[
			{"title":"back up the database"},
			{"title":"drop old tables","requiresConfirmation":true,"confirmationReason":"destructive","completed":true}
		]}`
		d := NewDecomposer(llm.ReasonerFunc(func(ctx context.Context, req llm.Request) (*llm.Response, error) {
			prompt = req.Messages[0].Content
			content := "```json\n" + answer + "\n```"
			return &llm.Response{Content: content}, nil
		}))
		steps := d.Decompose(ctx, "clean up", "")
		Expect(steps).To(HaveLen(2))
		Expect(steps[1].RequiresConfirmation).To(BeTrue())
		Expect(steps[1].ConfirmationReason).To(Equal("destructive"))
		Expect(steps[1].Completed).To(BeFalse())
		Expect(strings.Contains(prompt, "urgency is medium")).To(BeTrue())
	})
})
