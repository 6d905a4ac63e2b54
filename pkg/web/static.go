package web

import (
	"io/fs"
	"net/http"
)

// Static serves files under subdir of fsys with urlPrefix stripped.
func Static(fsys fs.FS, subdir, urlPrefix string) (http.Handler, error) {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		return nil, err
	}
	return http.StripPrefix(urlPrefix, http.FileServerFS(sub)), nil
}
