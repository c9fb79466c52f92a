package fleet

import (
	"fmt"
	"os"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a fleet definition
type catalogFile struct {
	Machines []entities.MachineSpec `yaml:"machines"`
}

// DefaultCatalog returns the plant's standard eight-machine line-up
func DefaultCatalog() []entities.MachineSpec {
	flat := entities.FlatHandle
	twisted := entities.TwistedHandle
	none := entities.NoHandle

	return []entities.MachineSpec{
		{ID: "M1", Name: "Garant GL-1", MaxWidth: 450, MaxHeight: 500, MaxGusset: 200, MinGSM: 70, MaxGSM: 120,
			MinPaperWidth: 700, MaxPaperWidth: 1400, SupportedHandles: []entities.HandleType{flat},
			BagsPerHour: 4800, Efficiency: 0.85, SetupHours: 1},
		{ID: "M2", Name: "Garant GL-2", MaxWidth: 450, MaxHeight: 500, MaxGusset: 200, MinGSM: 70, MaxGSM: 120,
			MinPaperWidth: 700, MaxPaperWidth: 1400, SupportedHandles: []entities.HandleType{twisted},
			BagsPerHour: 4200, Efficiency: 0.85, SetupHours: 1},
		{ID: "M3", Name: "Newlong HT-3", MaxWidth: 400, MaxHeight: 450, MaxGusset: 180, MinGSM: 60, MaxGSM: 110,
			MinPaperWidth: 600, MaxPaperWidth: 1200, SupportedHandles: []entities.HandleType{flat, twisted},
			BagsPerHour: 3600, Efficiency: 0.8, SetupHours: 1.5},
		{ID: "M4", Name: "Holweg RS-4", MaxWidth: 350, MaxHeight: 430, MaxGusset: 160, MinGSM: 60, MaxGSM: 100,
			MinPaperWidth: 500, MaxPaperWidth: 1100, SupportedHandles: []entities.HandleType{flat, twisted, none},
			BagsPerHour: 6000, Efficiency: 0.82, SetupHours: 1.25},
		{ID: "M5", Name: "Vega-5", MaxWidth: 500, MaxHeight: 600, MaxGusset: 250, MinGSM: 80, MaxGSM: 150,
			MinPaperWidth: 800, MaxPaperWidth: 1600, SupportedHandles: []entities.HandleType{flat, none},
			BagsPerHour: 2400, Efficiency: 0.8, SetupHours: 2},
		{ID: "M6", Name: "Kraft Master 6", MaxWidth: 320, MaxHeight: 420, MaxGusset: 150, MinGSM: 60, MaxGSM: 100,
			MinPaperWidth: 500, MaxPaperWidth: 1000, SupportedHandles: []entities.HandleType{twisted},
			BagsPerHour: 3000, Efficiency: 0.9, SetupHours: 0.75},
		{ID: "M7", Name: "Starlinger SX-7", MaxWidth: 550, MaxHeight: 650, MaxGusset: 260, MinGSM: 90, MaxGSM: 170,
			MinPaperWidth: 900, MaxPaperWidth: 1800, SupportedHandles: []entities.HandleType{flat, twisted},
			BagsPerHour: 2000, Efficiency: 0.78, SetupHours: 2.5},
		{ID: "M8", Name: "Compact Line 8", MaxWidth: 260, MaxHeight: 360, MaxGusset: 120, MinGSM: 50, MaxGSM: 90,
			MinPaperWidth: 400, MaxPaperWidth: 900, SupportedHandles: []entities.HandleType{none},
			BagsPerHour: 7200, Efficiency: 0.88, SetupHours: 0.5},
	}
}

// ParseCatalog decodes a YAML fleet definition and validates every machine
func ParseCatalog(data []byte) ([]entities.MachineSpec, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fleet catalog: %w", err)
	}
	if len(file.Machines) == 0 {
		return nil, fmt.Errorf("fleet catalog defines no machines")
	}

	seen := make(map[string]bool, len(file.Machines))
	for i := range file.Machines {
		spec := &file.Machines[i]
		for j, h := range spec.SupportedHandles {
			spec.SupportedHandles[j] = entities.ParseHandleType(string(h))
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("fleet catalog machine %d: %w", i+1, err)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("fleet catalog: duplicate machine id %s", spec.ID)
		}
		seen[spec.ID] = true
	}
	return file.Machines, nil
}

// LoadCatalog reads a YAML fleet definition from disk
func LoadCatalog(path string) ([]entities.MachineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fleet catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// MarshalCatalog encodes specs in the catalog file layout
func MarshalCatalog(specs []entities.MachineSpec) ([]byte, error) {
	return yaml.Marshal(catalogFile{Machines: specs})
}
