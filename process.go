package docxtemplate

import "github.com/arborly/docxtemplate/container"

// Process evaluates every marker reachable from doc's body against data and opts (§6), mutating
// doc's tree in place. A non-nil error is always a hard failure (a malformed template, a
// non-iterable loop collection, or a missing variable under ThrowException); anything
// recoverable is reported as a warning on the returned Result instead.
func Process(doc *container.Document, data Value, opts ProcessingOptions) (Result, error) {
	result := newResult()
	ctx := NewGlobalContext(data)

	if err := WalkBody(doc.Body(), ctx, opts, result); err != nil {
		result.fail(err)
		return *result, err
	}
	return *result, nil
}
