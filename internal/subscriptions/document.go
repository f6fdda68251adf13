package subscriptions

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"subtidy/internal/logging"
	"subtidy/internal/services"
)

// showSection is the only top-level category the manager operates on.
const showSection = "Plex TV Show by Date"

// Document is a loaded subscription manifest. The YAML tree is kept as
// parsed nodes rather than decoded maps so writes preserve key order.
type Document struct {
	path   string
	root   *yaml.Node
	exists bool
	logger *slog.Logger
}

// Load reads the manifest at path. A missing file yields a valid empty
// document; a file that is present but not parsable YAML is a fatal
// configuration error.
func Load(path string, logger *slog.Logger) (*Document, error) {
	doc := &Document{
		path:   path,
		logger: logging.WithComponent(logger, "subscriptions"),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		doc.logger.Warn("subscriptions file does not exist", logging.String(logging.FieldPath, path))
		doc.root = emptyDocument()
		return doc, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "subscriptions", "load", "read manifest", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "subscriptions", "load",
			fmt.Sprintf("manifest %s is not valid YAML", path), err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		doc.logger.Warn("subscriptions file is empty", logging.String(logging.FieldPath, path))
		doc.root = emptyDocument()
		doc.exists = true
		return doc, nil
	}

	doc.root = &root
	doc.exists = true
	return doc, nil
}

// Path returns the manifest location on disk.
func (d *Document) Path() string { return d.path }

// Exists reports whether the manifest was present when loaded.
func (d *Document) Exists() bool { return d.exists }

// Save writes the manifest back to disk with two-space indentation.
func (d *Document) Save() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return services.Wrap(services.ErrFatal, "subscriptions", "save", "create manifest directory", err)
	}
	file, err := os.Create(d.path)
	if err != nil {
		return services.Wrap(services.ErrFatal, "subscriptions", "save", "open manifest for writing", err)
	}
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(d.body()); err != nil {
		file.Close()
		return services.Wrap(services.ErrFatal, "subscriptions", "save", "encode manifest", err)
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return services.Wrap(services.ErrFatal, "subscriptions", "save", "flush manifest", err)
	}
	d.exists = true
	return file.Close()
}

// body returns the top-level mapping node.
func (d *Document) body() *yaml.Node {
	if d.root == nil {
		d.root = emptyDocument()
	}
	if d.root.Kind == yaml.DocumentNode && len(d.root.Content) > 0 {
		return d.root.Content[0]
	}
	return d.root
}

// shows returns the mapping node for the scheduled-show section, or nil if
// the section is absent.
func (d *Document) shows() *yaml.Node {
	return mappingValue(d.body(), showSection)
}

// ensureShows returns the scheduled-show section, creating it when missing.
func (d *Document) ensureShows() *yaml.Node {
	body := d.body()
	if node := mappingValue(body, showSection); node != nil {
		return node
	}
	section := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	mappingSet(body, showSection, section)
	return section
}

func emptyDocument() *yaml.Node {
	return &yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{
			{Kind: yaml.MappingNode, Tag: "!!map"},
		},
	}
}

// mappingValue looks up key in a mapping node and returns its value node.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// mappingSet appends key/value to a mapping node, replacing the value if
// the key already exists.
func mappingSet(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// mappingDelete removes key from a mapping node, reporting whether the key
// was present.
func mappingDelete(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return true
		}
	}
	return false
}

// eachEntry visits every key/value pair of a mapping node in order.
func eachEntry(mapping *yaml.Node, fn func(key string, value *yaml.Node)) {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		fn(mapping.Content[i].Value, mapping.Content[i+1])
	}
}

func scalarValue(mapping *yaml.Node, key string) string {
	node := mappingValue(mapping, key)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}
