package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lokireturns/loki-jsonschema-resolver/document"
	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
	"github.com/lokireturns/loki-jsonschema-resolver/walker"
)

type locateInput struct {
	File string `json:"file" jsonschema:"The schema file the reference appears in"`
	Ref  string `json:"ref"  jsonschema:"The $ref value, e.g. #/components/schemas/Pet or ../enums/unit.enum.json#/components/schemas/Unit"`
}

// locateOutput reports the located value. Target is relative to the
// directory of the input file; Unresolved is set when the value still
// holds references.
type locateOutput struct {
	Kind       string            `json:"kind"`
	Target     string            `json:"target"`
	Unresolved bool              `json:"unresolved,omitempty"`
	Value      gojson.RawMessage `json:"value"`
}

func handleLocate(_ context.Context, _ *mcp.CallToolRequest, input locateInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.File) == "" {
		return errResult(fmt.Errorf("file is required")), nil, nil
	}
	ref, err := pointer.Parse(input.Ref)
	if err != nil {
		return errResult(err), nil, nil
	}
	file, err := filepath.Abs(input.File)
	if err != nil {
		return errResult(fmt.Errorf("invalid file: %w", err)), nil, nil
	}

	target := file
	if ref.Kind != pointer.Internal {
		target = pointer.ResolvePath(ref.Path, file)
	}
	doc, err := document.Load(target)
	if err != nil {
		return errResult(err), nil, nil
	}

	var value any
	if ref.Kind == pointer.External {
		value = pointer.DefaultFragment(doc)
	} else {
		value, err = pointer.Locate(ref.Pointer, doc)
		if err != nil {
			return errResult(err), nil, nil
		}
	}

	data, err := document.Marshal(value)
	if err != nil {
		return errResult(err), nil, nil
	}
	return nil, locateOutput{
		Kind:       ref.Kind.String(),
		Target:     relativeTo(filepath.Dir(file), target),
		Unresolved: walker.HasRefs(value),
		Value:      data,
	}, nil
}
