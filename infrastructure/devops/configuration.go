package devops

import (
	"context"
	"fmt"
	"sync"

	"aerocrew.com/aerocrew/utils"
	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// BioTimeEntry holds the credentials for one terminal server, keyed by
// environment name in the "biotime" SSM parameter.
type BioTimeEntry struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Token    string `yaml:"token"`
	Timezone int    `yaml:"timezone"` // UTC offset in hours
}

var (
	once    sync.Once
	entries []BioTimeEntry
	loadErr error
)

func LoadBioTimeConfig(ctx context.Context) ([]BioTimeEntry, error) {
	once.Do(func() {
		paramName := "biotime"

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(cfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		var parsed []BioTimeEntry
		if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &parsed); err != nil {
			loadErr = fmt.Errorf("unmarshal yaml: %w", err)
			return
		}

		entries = parsed
	})

	return entries, loadErr
}

// FindBioTimeEntry returns the entry for an environment, or an error
// naming what is missing.
func FindBioTimeEntry(ctx context.Context, env string) (*BioTimeEntry, error) {
	all, err := LoadBioTimeConfig(ctx)
	if err != nil {
		return nil, err
	}
	entry := utils.Find(all, func(e *BioTimeEntry) bool { return e.Name == env })
	if entry == nil {
		return nil, fmt.Errorf("environment '%s' not found in biotime parameter", env)
	}
	return entry, nil
}
