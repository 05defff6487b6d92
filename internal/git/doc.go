// Package git wraps go-git for the two repository roles the pipeline touches:
// the source checkout that documentation is extracted from, and the publish
// branch clone that the rendered site is committed to.
package git
