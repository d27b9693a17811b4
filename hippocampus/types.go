// ABOUTME: Value types returned by the two hippocampus JSON-contract decisions.

package hippocampus

// Turn is one prior conversation turn, used only to give the recall
// decision a little context — not the actor package's ChatTurn, to keep
// this package independent of the actor runtime.
type Turn struct {
	Role    string
	Content string
}

// RecallDecision is the result of analyzing whether memory recall would
// benefit the current turn.
type RecallDecision struct {
	ShouldRecall bool
	SearchQuery  string
	Reason       string
}

// ResponseJudgment is the result of judging whether an agent's response
// should reach the user and whether the agent should keep working.
type ResponseJudgment struct {
	SendToUser   bool
	ContinueTask bool
	Reason       string
}

var defaultJudgment = ResponseJudgment{SendToUser: true, ContinueTask: false, Reason: "default"}
