// Package www carries the site's templates and public files.
package www

import "embed"

//go:embed templates public
var FS embed.FS
