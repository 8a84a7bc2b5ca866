// Package table implements the state behind a server-side paginated data
// table: it owns the current query (limit, offset, like, sort), fetches pages
// through an injected search function and mirrors the query into the URL.
//
// A Controller is created per view instance:
//
//	ctrl, err := table.New(table.Config[admin.Cohort]{
//		Search:    client.Searcher[admin.Cohort](apiClient, admin.CohortResource),
//		Navigator: history,
//		Location:  history,
//	})
//	if err != nil {
//		return err
//	}
//	defer ctrl.Unmount()
//
//	if err := ctrl.Mount(ctx); err != nil {
//		log.Warn().Err(err).Msg("Initial load failed")
//	}
//
//	// user clicks page 3 with 20 rows per page
//	err = ctrl.ChangePage(ctx, 2, 20)
//
// Fetch ordering:
//   - every fetch takes a sequence number
//   - LatestIssued (default) applies only the response of the newest request
//     and cancels the context of superseded ones
//   - LatestResolved applies every response in arrival order
//
// After Unmount no response mutates the controller and in-flight request
// contexts are cancelled.
//
// URL writes replace the current entry (never push) and happen only after a
// successful fetch triggered by a page, rows-per-page, sort, search or filter
// change. Mount and Reload never write the URL.
package table
