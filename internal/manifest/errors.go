package manifest

import "errors"

var (
	ErrNoFiles         = errors.New("no files to submit")
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrResourceType    = errors.New("resource id requires a resource type")
	ErrReplaces        = errors.New("replaces is only supported when submitting a single document")
	ErrManifestFlags   = errors.New("resource and replaces options must be encoded in the manifest file")
	ErrFilter          = errors.New("invalid file filter")
)
