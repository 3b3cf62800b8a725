package tactical_test

import (
	"context"
	"encoding/json"

	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	. "github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fixedDecomposer []TaskStep

func (f fixedDecomposer) Decompose(ctx context.Context, text string, urgency types.Urgency) []TaskStep {
	return f
}

func newTree() *planning.Tree {
	GinkgoHelper()
	tree := planning.NewTree()
	_, err := tree.AddNode(planning.NewGoal("g", "ship"), "")
	Expect(err).ToNot(HaveOccurred())
	return tree
}

func addTask(tree *planning.Tree, id, description string) *planning.Node {
	GinkgoHelper()
	t := planning.NewTask(id, "task "+id)
	t.Description = description
	_, err := tree.AddNode(t, "g")
	Expect(err).ToNot(HaveOccurred())
	n, _ := tree.Node(id)
	return n
}

func node(tree *planning.Tree, id string) *planning.Node {
	GinkgoHelper()
	n, ok := tree.Node(id)
	Expect(ok).To(BeTrue())
	return n
}

func titles(steps []TaskStep) []string {
	out := []string{}
	for _, s := range steps {
		out = append(out, s.Title)
	}
	return out
}

var _ = Describe("Executor", func() {
	var (
		tree *planning.Tree
		exec *Executor
	)

	BeforeEach(func() {
		tree = newTree()
		exec = NewExecutor(tree, fixedDecomposer{{Title: "plan"}, {Title: "do", RequiresConfirmation: true, ConfirmationReason: "irreversible"}})
	})

	It("refuses to execute a goal", func() {
		g, _ := tree.Node("g")
		Expect(exec.StartExecution(g)).To(MatchError(ErrInvalidOperation))
		Expect(exec.Current()).To(BeNil())
	})

	It("tracks one task at a time", func() {
		a := addTask(tree, "a", "")
		b := addTask(tree, "b", "")
		Expect(exec.StartExecution(a)).To(Succeed())
		Expect(exec.StartExecution(b)).To(MatchError(ErrInvalidOperation))
		Expect(exec.Current().ID).To(Equal("a"))
	})

	It("activates the task and synthesizes steps from the description", func() {
		a := addTask(tree, "a", "fetch the logs; grep for errors then file a ticket")
		Expect(exec.StartExecution(a)).To(Succeed())

		n := node(tree, "a")
		Expect(n.Status()).To(Equal(planning.StatusActive))
		Expect(n.Progress).To(Equal(0))
		Expect(tree.ActiveNodeID()).To(Equal("a"))
		Expect(titles(exec.Steps())).To(Equal([]string{"fetch the logs", "grep for errors", "file a ticket"}))
		Expect(exec.Steps()[1].ID).To(Equal("a-step-2"))
		Expect(n.Metadata).To(HaveKey(StepsKey))
	})

	It("falls back to a single step named after the task", func() {
		a := addTask(tree, "a", "")
		Expect(exec.StartExecution(a)).To(Succeed())
		Expect(titles(exec.Steps())).To(Equal([]string{"task a"}))
	})

	It("loads persisted steps, including after a JSON round trip", func() {
		a := addTask(tree, "a", "ignored; description")
		var generic interface{}
		b, _ := json.Marshal([]TaskStep{{Title: "one", Completed: true}, {Title: "two"}, {Title: "three"}, {Title: "four"}})
		Expect(json.Unmarshal(b, &generic)).To(Succeed())
		Expect(tree.SetMetadata("a", StepsKey, generic)).To(Succeed())

		Expect(exec.StartExecution(a)).To(Succeed())
		Expect(titles(exec.Steps())).To(Equal([]string{"one", "two", "three", "four"}))
		Expect(node(tree, "a").Progress).To(Equal(0))

		step, err := exec.CompleteCurrentStep("done two")
		Expect(err).ToNot(HaveOccurred())
		Expect(step.Title).To(Equal("two"))
		Expect(step.Result).To(Equal("done two"))
		Expect(node(tree, "a").Progress).To(Equal(50))
	})

	It("replaces the steps on decomposition", func() {
		a := addTask(tree, "a", "x; y; z")
		Expect(exec.StartExecution(a)).To(Succeed())
		Expect(exec.Decompose(context.Background())).To(Succeed())

		steps := exec.Steps()
		Expect(titles(steps)).To(Equal([]string{"plan", "do"}))
		Expect(steps[1].RequiresConfirmation).To(BeTrue())
		Expect(steps[1].Order).To(Equal(1))

		persisted, ok := node(tree, "a").Metadata[StepsKey].([]TaskStep)
		Expect(ok).To(BeTrue())
		Expect(persisted).To(Equal(steps))
	})

	It("reports when every step is done", func() {
		a := addTask(tree, "a", "")
		Expect(exec.StartExecution(a)).To(Succeed())
		_, err := exec.CompleteCurrentStep("")
		Expect(err).ToNot(HaveOccurred())
		Expect(node(tree, "a").Progress).To(Equal(100))
		Expect(exec.Remaining()).To(BeFalse())
		_, err = exec.CompleteCurrentStep("")
		Expect(err).To(MatchError(ErrNoPendingStep))
	})

	It("records step errors without completing the step", func() {
		a := addTask(tree, "a", "")
		Expect(exec.StartExecution(a)).To(Succeed())
		step, err := exec.FailCurrentStep("timeout")
		Expect(err).ToNot(HaveOccurred())
		Expect(step.Error).To(Equal("timeout"))
		Expect(exec.CurrentStep().Title).To(Equal("task a"))
	})

	It("refuses step operations without a task in flight", func() {
		_, err := exec.CompleteCurrentStep("x")
		Expect(err).To(MatchError(ErrInvalidOperation))
		Expect(exec.Decompose(context.Background())).To(MatchError(ErrInvalidOperation))
	})

	Context("terminal transitions", func() {
		var a *planning.Node

		BeforeEach(func() {
			a = addTask(tree, "a", "")
			addTask(tree, "b", "")
			Expect(exec.StartExecution(a)).To(Succeed())
		})

		It("completes only the tracked task", func() {
			Expect(exec.CompleteExecution("b", "nope")).To(MatchError(ErrNotTracked))

			Expect(exec.CompleteExecution("a", "shipped")).To(Succeed())
			n := node(tree, "a")
			Expect(n.Status()).To(Equal(planning.StatusCompleted))
			Expect(n.Task.Result).To(Equal("shipped"))
			Expect(exec.Current()).To(BeNil())
			Expect(tree.ActiveNodeID()).To(BeEmpty())
			Expect(node(tree, "g").Progress).To(Equal(50))

			Expect(exec.CompleteExecution("a", "again")).To(MatchError(ErrNotTracked))
		})

		It("fails the tracked task and frees the executor", func() {
			Expect(exec.FailExecution("a", "disk full")).To(Succeed())
			n := node(tree, "a")
			Expect(n.Status()).To(Equal(planning.StatusFailed))
			Expect(n.Task.Error).To(Equal("disk full"))

			b, _ := tree.Node("b")
			Expect(exec.StartExecution(b)).To(Succeed())
		})
	})
})
