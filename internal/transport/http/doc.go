// Package http implements the HTTP handlers of the well count service.
// Handlers parse and validate requests, call the service layer and render
// the result; they hold no analysis logic of their own.
//
// # Routes
//
//	POST   /api/analyze                  one-off analysis of an uploaded file
//	POST   /api/analyze/export           xlsx or csv export of that analysis
//	POST   /api/analyze/plots            heatmaps and histograms as HTML
//	GET    /api/files                    stored files
//	POST   /api/files                    store a file, 200 when already stored
//	GET    /api/files/{id}/labels/default
//	GET    /api/labels?dimension=8x12    label matrices
//	POST   /api/labels
//	GET    /api/labels/{id}
//	DELETE /api/labels/{id}
//	GET    /api/jobs
//	POST   /api/jobs                     multipart: files, thresholds, labels
//	GET    /api/jobs/{id}
//	DELETE /api/jobs/{id}
//	PUT    /api/jobs/{id}/thresholds
//	GET    /api/jobs/{id}/analysis
//	GET    /api/jobs/{id}/export?file_id=N
//	GET    /api/jobs/{id}/plots
//	POST   /api/aggregate                {"job_ids": [...]}
//	POST   /api/aggregate/export
//	POST   /api/aggregate/plots
//	GET    /ws/preview                   threshold previews over websocket
//
// # Errors
//
// Service sentinels are mapped by serviceError and rendered as RFC 7807
// problem documents by the shared error handler.
package http
