package initwfn

import (
	"encoding/json"
	"testing"
)

func TestGlorotUJSONRoundTrip(t *testing.T) {
	src, err := NewGlorotU(1.5)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}

	var dst InitWFn
	if err := json.Unmarshal(data, &dst); err != nil {
		t.Fatal(err)
	}

	if dst.Type != GlorotU {
		t.Errorf("type: got %v, want %v", dst.Type, GlorotU)
	}
	config, ok := dst.Config.(GlorotUConfig)
	if !ok {
		t.Fatalf("config: got %T, want GlorotUConfig", dst.Config)
	}
	if config.Gain != 1.5 {
		t.Errorf("gain: got %v, want 1.5", config.Gain)
	}
	if dst.InitWFn() == nil {
		t.Error("unmarshalled InitWFn has no Gorgonia InitWFn")
	}
}

func TestConstantJSONRoundTrip(t *testing.T) {
	src, err := NewConstant(0.25)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}

	var dst InitWFn
	if err := json.Unmarshal(data, &dst); err != nil {
		t.Fatal(err)
	}

	if dst.Type != Constant {
		t.Errorf("type: got %v, want %v", dst.Type, Constant)
	}
	if dst.Config.(ConstantConfig).Value != 0.25 {
		t.Errorf("config: got %+v, want value 0.25", dst.Config)
	}
}
