package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

// Load reads and converts a snapshot file. Files ending in .json are JSON,
// everything else is HCL.
func Load(path string) (*Snapshot, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read snapshot %s", path)
	}
	snap, err := Decode(src, path)
	if err != nil {
		return nil, err
	}
	logging.Debug("snapshot loaded",
		zap.String("path", path),
		zap.String("trip", snap.Trip.ID),
		zap.Int("profiles", len(snap.Profiles)))
	return snap, nil
}

// Decode converts snapshot bytes. filename selects the syntax and is used
// in diagnostics.
func Decode(src []byte, filename string) (*Snapshot, error) {
	var (
		doc *Document
		err error
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		doc, err = DecodeJSON(src)
	} else {
		doc, err = DecodeHCL(src, filename)
	}
	if err != nil {
		return nil, err
	}
	return Convert(doc)
}

// DecodeJSON decodes a JSON document. Unknown fields are rejected.
func DecodeJSON(src []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.TypeMalformedInput, "invalid JSON snapshot", err)
	}
	return &doc, nil
}

// DecodeHCL decodes an HCL document
func DecodeHCL(src []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	var doc Document
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, diagError(diags)
	}
	return &doc, nil
}

// diagError turns the first error diagnostic into a MALFORMED_INPUT error
func diagError(diags hcl.Diagnostics) error {
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		e := errors.New(errors.TypeMalformedInput, diag.Summary+": "+diag.Detail)
		if diag.Subject != nil {
			e = e.WithContext("file", diag.Subject.Filename).
				WithContext("line", diag.Subject.Start.Line)
		}
		if n := len(diags.Errs()); n > 1 {
			e = e.WithContext("more", fmt.Sprintf("%d more errors", n-1))
		}
		return e
	}
	return errors.New(errors.TypeMalformedInput, diags.Error())
}
