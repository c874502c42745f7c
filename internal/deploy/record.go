package deploy

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Deployment records what a module run deployed.
type Deployment struct {
	Module     string        `yaml:"module"`
	ChainID    uint64        `yaml:"chain_id,omitempty"`
	Parameters ParamsRecord  `yaml:"parameters"`
	Signers    SignersRecord `yaml:"signers"`
	RealEstate string        `yaml:"real_estate"`
	Escrow     string        `yaml:"escrow,omitempty"`
	Tokens     []Token       `yaml:"tokens"`
	TxHashes   []string      `yaml:"transactions"`
}

// ParamsRecord is Params in printable form.
type ParamsRecord struct {
	UnlockTime   uint64 `yaml:"unlock_time"`
	LockedAmount string `yaml:"locked_amount"`
}

type SignersRecord struct {
	Deployer  string `yaml:"deployer"`
	Buyer     string `yaml:"buyer"`
	Seller    string `yaml:"seller"`
	Inspector string `yaml:"inspector"`
	Lender    string `yaml:"lender"`
}

// Token is one minted deed.
type Token struct {
	ID       uint64    `yaml:"id"`
	URI      string    `yaml:"uri"`
	Owner    string    `yaml:"owner"`
	TxHash   string    `yaml:"tx_hash"`
	Metadata *Metadata `yaml:"metadata,omitempty"`
}

// WriteYAML encodes the deployment to w.
func (d *Deployment) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

// Save writes the deployment as YAML to path.
func (d *Deployment) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a deployment written by Save.
func Load(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := new(Deployment)
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, nil
}
