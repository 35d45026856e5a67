package transforms

import (
	"bufio"
	"fmt"
	"os"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// FileSourceNode reads a file line by line, emitting one value per line and
// terminating at EOF — a zero-input source, grounded on the original
// implementation's file_source node (config: path).
type FileSourceNode struct {
	node.BaseNode
	path string
}

// NewFileSourceFactory returns the factory the compiler registers under
// "file_source".
func NewFileSourceFactory() node.Factory {
	return func(id string) node.Node {
		return &FileSourceNode{BaseNode: node.NewBaseNode(id, "file_source", nil)}
	}
}

func (f *FileSourceNode) Arity() node.Arity {
	return node.Arity{Outputs: []node.PortDescriptor{{Name: "0"}}}
}

func (f *FileSourceNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	f.BaseNode = node.NewBaseNode(f.ID(), "file_source", config)
	f.path = f.GetConfigString("path", "")
	if f.path == "" {
		return fmt.Errorf("file_source node %q requires a non-empty path", f.ID())
	}
	return nil
}

func (f *FileSourceNode) Run(_ []node.Input, outputs []*node.Output, rc node.RunContext) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		select {
		case <-rc.Done():
			return nil
		default:
		}
		if !outputs[0].Send(rc.Context, value.String(scanner.Text())) {
			return nil
		}
	}
	return scanner.Err()
}
