package models

// ResolveOutput is the output attached to results published to resolve an
// event on request.
const ResolveOutput = "Resolving on request of the API"

// CheckResult is the message consumed by the platform's result processor.
type CheckResult struct {
	Client string      `json:"client"`
	Check  ResultCheck `json:"check"`
}

// ResultCheck is the check section of a CheckResult.
type ResultCheck struct {
	Name     string `json:"name"`
	Output   string `json:"output"`
	Status   int    `json:"status"`
	Issued   int64  `json:"issued"`
	Handlers any    `json:"handlers"`
	// ForceResolve tells the result processor to resolve the event even when
	// its flapping or occurrence filters would keep it open.
	ForceResolve bool `json:"force_resolve"`
}

// CheckRequest asks every subscriber of an exchange to run a check now.
type CheckRequest struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Issued  int64  `json:"issued"`
}
