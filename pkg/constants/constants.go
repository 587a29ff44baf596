// Package constants defines values shared across rwTZ packages.
package constants

// UserAgent identifies rwTZ to upstream APIs.
const UserAgent = "rwTZ/1.0 (+https://github.com/codeGROOVE-dev/rwTZ)"

// LimitedData is the post count below which output warns that the
// inference rests on little evidence.
const LimitedData = 20
