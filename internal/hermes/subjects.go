package hermes

const (
	SubjectMatchCompletedAll = "kindred.match.*.completed"
	SubjectRosterLoaded      = "kindred.roster.loaded"

	StreamName   = "KINDRED_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectMatchCompleted(evaluationID string) string {
	return "kindred.match." + evaluationID + ".completed"
}
