package media

import "context"

// Asset describes a stored media object. Duration is zero when the
// host does not report one; callers decide the fallback.
type Asset struct {
	URL      string
	Duration float64
}

// Uploader sends a local temporary file to the media host and returns
// its public location. Implementations remove the local file before
// returning, whether or not the upload succeeded.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (Asset, error)
}
