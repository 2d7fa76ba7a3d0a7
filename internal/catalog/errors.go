package catalog

import "github.com/cockroachdb/errors"

var (
	// ErrLoadFailed marks any failure to retrieve or parse the dataset
	ErrLoadFailed = errors.New("catalog load failed")

	// ErrUnexpectedStatus is returned for non-2xx dataset responses
	ErrUnexpectedStatus = errors.New("unexpected catalog response status")
)
