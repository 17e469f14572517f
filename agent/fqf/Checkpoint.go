package fqf

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Checkpoint file names. The target blob holds the target encoder
// followed by the target quantile network.
const (
	encoderFile  string = "dqn_base.bin"
	fractionFile string = "fraction_net.bin"
	quantileFile string = "quantile_net.bin"
	targetFile   string = "target_net.bin"
)

// savedTensor is the serialized form of a single weight tensor
type savedTensor struct {
	Shape []int
	Data  []float64
}

// Save writes the weights of every network to the directory dir,
// creating it if needed
func (m *valueModel) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: could not create directory: %v", err)
	}

	target := append(append(G.Nodes{}, m.targetEncoder.Learnables()...),
		m.targetQNet.Learnables()...)
	blobs := map[string]G.Nodes{
		encoderFile:  m.encoder.Learnables(),
		fractionFile: m.proposer.Learnables(),
		quantileFile: m.quantileNet.Learnables(),
		targetFile:   target,
	}

	for name, nodes := range blobs {
		err := saveLearnables(filepath.Join(dir, name), nodes)
		if err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Load restores the weights of every network from a directory written
// by Save, then overwrites all forward copies so the restored weights
// take effect everywhere
func (m *valueModel) Load(dir string) error {
	target := append(append(G.Nodes{}, m.targetEncoder.Learnables()...),
		m.targetQNet.Learnables()...)
	blobs := map[string]G.Nodes{
		encoderFile:  m.encoder.Learnables(),
		fractionFile: m.proposer.Learnables(),
		quantileFile: m.quantileNet.Learnables(),
		targetFile:   target,
	}

	for name, nodes := range blobs {
		err := loadLearnables(filepath.Join(dir, name), nodes)
		if err != nil {
			return fmt.Errorf("load: %v", err)
		}
	}
	if err := m.syncForward(); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return m.syncAct()
}

// saveLearnables gob encodes the values of the given nodes, in order,
// to the file at filename
func saveLearnables(filename string, nodes G.Nodes) error {
	saved := make([]savedTensor, len(nodes))
	for i, node := range nodes {
		value := node.Value()
		data := value.Data().([]float64)

		saved[i].Shape = append([]int{}, value.Shape()...)
		saved[i].Data = make([]float64, len(data))
		copy(saved[i].Data, data)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create %v: %v", filename, err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(saved); err != nil {
		return fmt.Errorf("could not encode %v: %v", filename, err)
	}
	return nil
}

// loadLearnables decodes the file at filename and binds each decoded
// tensor to the corresponding node
func loadLearnables(filename string, nodes G.Nodes) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open %v: %v", filename, err)
	}
	defer file.Close()

	var saved []savedTensor
	de := gob.NewDecoder(file)
	if err := de.Decode(&saved); err != nil {
		return fmt.Errorf("could not decode %v: %v", filename, err)
	}

	if len(saved) != len(nodes) {
		return fmt.Errorf("%v holds %v tensors \n\twant(%v)", filename,
			len(saved), len(nodes))
	}
	for i, node := range nodes {
		if !node.Shape().Eq(tensor.Shape(saved[i].Shape)) {
			return fmt.Errorf("%v: tensor %v has shape %v \n\twant(%v)",
				filename, i, saved[i].Shape, node.Shape())
		}
		err := G.Let(node, tensor.New(
			tensor.WithShape(saved[i].Shape...),
			tensor.WithBacking(saved[i].Data),
		))
		if err != nil {
			return fmt.Errorf("%v: could not bind tensor %v: %v", filename,
				i, err)
		}
	}
	return nil
}
