// Package jsonschemaresolver flattens directories of JSON Schema and OpenAPI
// documents by inlining every $ref in place.
//
// # Overview
//
// A reference takes one of three shapes:
//
//	#/components/schemas/Pet                  internal: same document
//	./pet.json                                external: another file's default location
//	./pet.json#/components/schemas/Pet        external-internal: a location in another file
//
// Each reference site is replaced by a copy of the referenced fragment.
// Annotation fields written next to the $ref (description, title,
// nullable, format, x-virtual) override the fragment's own values, and a
// small set of preserved keys carries over from the fragment's siblings.
// A pointer ending in an enum index, such as
// "./unit.enum.json#/components/schemas/Unit/enum/0", produces a
// single-member enum schema.
//
// Files are processed in passes. A file whose external target still holds
// references waits for a later pass. The run ends when every file is free
// of references, and fails when a full pass makes no progress, which means
// the remaining files reference each other in a cycle.
//
// # Packages
//
//   - pointer: classify $ref values and locate the fragments they point to
//   - walker: find references and keys in decoded documents
//   - merger: substitute fragments into reference sites, keeping annotations
//   - resolver: the pass loop over a set of files
//   - document: order-preserving JSON decoding and encoding
//   - referrors: structured error types shared by all packages
//   - logging: the Logger interface with slog and zerolog adapters
//
// # Quick Start
//
//	r, err := resolver.New(resolver.WithLogger(logging.NewSlogAdapter(nil)))
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := r.Run(ctx, []string{"schemas/basket.json", "schemas/line.json"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("resolved %d files in %d passes\n", len(result.Resolved), result.Passes)
//
// Preview without writing:
//
//	r, _ := resolver.New(resolver.WithDryRun(true))
//	result, _ := r.Run(ctx, paths)
//	for path, doc := range result.Documents {
//		data, _ := document.MarshalIndent(doc)
//		fmt.Printf("%s:\n%s", path, data)
//	}
//
// # Error Handling
//
// Errors carry a type from the referrors package and match its sentinels
// with errors.Is:
//
//	if errors.Is(err, referrors.ErrNoProgress) {
//		var conv *referrors.ConvergenceError
//		errors.As(err, &conv)
//		fmt.Println("cycle between:", conv.Unresolved)
//	}
//
// # Command-Line Interface
//
//	jsonschema-resolver resolve ./schemas
//	jsonschema-resolver resolve --dry-run --format json ./schemas
//	jsonschema-resolver refs --kind external ./schemas
//	jsonschema-resolver reset ./schemas
//	jsonschema-resolver watch ./schemas
//	jsonschema-resolver mcp
//
// A .jsonschema-resolver.yaml file in the target directory configures the
// annotation fields, preserved keys, file extension, pass limit, logging,
// and a Prometheus textfile for metrics.
package jsonschemaresolver
