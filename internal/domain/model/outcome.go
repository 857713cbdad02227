package model

// Run statuses reported per job.
const (
	RunStatusOK    = "OK"
	RunStatusError = "ERROR"
)

// RunOutcome is the result of one sync run for one (account, object) job,
// reported to the caller of an on-demand run and collected per job during a
// scheduled sweep.
type RunOutcome struct {
	UserID     string
	ObjectName string
	Status     string
	// Kind and Detail are set only on error.
	Kind   ErrorKind
	Detail string
	// Window, RecordCount, and LoadID describe a successful run. LoadID is
	// empty when the window was empty and nothing was appended.
	Window      FetchWindow
	RecordCount int
	LoadID      string
}

// OKOutcome builds a success outcome.
func OKOutcome(userID, objectName string, window FetchWindow, records int, loadID string) RunOutcome {
	return RunOutcome{
		UserID:      userID,
		ObjectName:  objectName,
		Status:      RunStatusOK,
		Window:      window,
		RecordCount: records,
		LoadID:      loadID,
	}
}

// ErrorOutcome builds a failure outcome from a kind-tagged error.
func ErrorOutcome(userID, objectName string, err error) RunOutcome {
	return RunOutcome{
		UserID:     userID,
		ObjectName: objectName,
		Status:     RunStatusError,
		Kind:       KindOf(err),
		Detail:     err.Error(),
	}
}
