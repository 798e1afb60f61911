package pkg

import "fmt"

var (
	// These variables are here only to show current version. They are set in makefile during build process
	TidemarkVersion         = "devel"
	GitRevision             = "devel"
	TidemarkVersionRevision = fmt.Sprintf("%s-%s", TidemarkVersion, GitRevision)
)
