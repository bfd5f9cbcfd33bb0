// Package reconcile writes a stakeholder's edits back to the master sheet.
//
// The edited table is compared row by row against the snapshot the
// stakeholder was shown. Changed rows get their editable cells rewritten,
// and the Last Updated cell stamped when the sheet has one, each as an
// independent store call. Locked fields are never written, so changes to
// them are discarded. All rows of one call share a single timestamp.
package reconcile
