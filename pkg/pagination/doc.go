// Package pagination fetches every page of a paginated GatherContent list.
//
// List endpoints report the total page count alongside the first page.
// The remaining pages are fetched in parallel and concatenated in page
// order, so callers see the same sequence a sequential walk would give.
//
// Example usage:
//
//	fetcher := pagination.PageFunc[gathercontent.Item](fetchItemsPage)
//	items, err := pagination.FetchAll[gathercontent.Item](ctx, fetcher, pagination.DefaultConfig())
//
// Every page request still goes through the caller's gateway, so the
// concurrency here only bounds in-flight requests; the request ceiling
// is enforced upstream.
package pagination
