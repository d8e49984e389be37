// Package services implements the business logic of cellviewer between the
// HTTP handlers and storage.
//
// AnalysisService runs the well count pipeline on one measurement file.
// LabelService stores plate label matrices. JobService stores uploads
// (de-duplicated by checksum) and groups them into jobs with per-file
// thresholds. AggregationService compares jobs of one plate dimension by
// the per-well mean and standard deviation of their double positive
// percentages.
//
// Services take an injected *slog.Logger and wrap storage and core errors
// with the sentinels in errors.go, which the HTTP layer maps to status
// codes.
package services
