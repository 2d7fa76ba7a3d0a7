package main

import "github.com/cockroachdb/errors"

var errEmptyCache = errors.New("catalog cache is empty; run import_catalog first")
