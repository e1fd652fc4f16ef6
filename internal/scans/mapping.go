package scans

import (
	"github.com/JaimeStill/neuroscan/pkg/query"
	"github.com/JaimeStill/neuroscan/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "scans", "s").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("classification", "Classification").
	Project("confidence_score", "ConfidenceScore").
	Project("report_file", "ReportFile").
	Project("severity", "Severity").
	Project("probabilities", "Probabilities").
	Project("created_at", "CreatedAt")

// Newest first. The id tiebreak keeps ordering total when timestamps collide.
var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID", Descending: true},
}

// sortable maps client sort keys to projection fields. Unlisted keys are dropped.
var sortable = map[string]string{
	"created_at":       "CreatedAt",
	"confidence_score": "ConfidenceScore",
	"classification":   "Classification",
}

func sortFields(requested []query.SortField) []query.SortField {
	fields := make([]query.SortField, 0, len(requested)+1)
	for _, f := range requested {
		if name, ok := sortable[f.Field]; ok {
			fields = append(fields, query.SortField{Field: name, Descending: f.Descending})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return append(fields, query.SortField{Field: "ID", Descending: true})
}

func scanScan(s repository.Scanner) (Scan, error) {
	var sc Scan
	err := s.Scan(
		&sc.ID,
		&sc.UserID,
		&sc.Classification,
		&sc.ConfidenceScore,
		&sc.ReportFile,
		&sc.Severity,
		&sc.Probabilities,
		&sc.CreatedAt,
	)
	return sc, err
}
