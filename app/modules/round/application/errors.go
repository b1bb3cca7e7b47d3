package roundservice

const (
	reasonRoundNotInProgress = "round is not in progress"
	reasonRoundNotCompleted  = "round is not completed"
	reasonInvalidStrokes     = "stroke count out of range"
	reasonEmptyBatch         = "batch contains no updates"
	reasonUnknownEntry       = "entry does not belong to round"
	reasonIncompleteScores   = "participant has unscored holes"
	reasonNoParticipants     = "round has no participants"
	reasonNoHoles            = "round has no holes"
	reasonMissingEditor      = "editor is required"
	reasonMissingReason      = "edit reason is required"
	reasonNoNineToSelect     = "nine selection requires an eighteen-hole round"
)
