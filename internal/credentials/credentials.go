package credentials

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/shotgrid"
	"github.com/spf13/viper"
)

// Credentials holds the secrets and studio list read from the credentials file.
type Credentials struct {
	StudioHostnames []string
	ShotGrid        shotgrid.Credentials

	v *viper.Viper
}

// Load reads the JSON credentials file at path, shaped as
// {"<section>": {"<key>": <value>}}. A missing or malformed file is logged
// and yields empty credentials.
func Load(path string, logger *slog.Logger) *Credentials {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			logger.Error("credentials file not found", "path", path)
		} else {
			logger.Error("credentials file is malformed", "path", path, "error", err)
		}
		v = viper.New()
	}

	c := &Credentials{
		ShotGrid: shotgrid.Credentials{
			URL:        strings.TrimRight(v.GetString("shotgrid.url"), "/"),
			ScriptName: v.GetString("shotgrid.script_name"),
			APIKey:     v.GetString("shotgrid.api_key"),
			Login:      v.GetString("shotgrid.login"),
			Password:   v.GetString("shotgrid.password"),
		},
		v: v,
	}

	for _, h := range v.GetStringSlice("deadline_cloud.studio_hostnames") {
		h = strings.TrimSpace(h)
		h = strings.TrimPrefix(h, "https://")
		h = strings.TrimRight(h, "/")
		if h != "" {
			c.StudioHostnames = append(c.StudioHostnames, h)
		}
	}
	if len(c.StudioHostnames) == 0 {
		logger.Warn("no studio hostnames configured", "path", path)
	}

	return c
}

// Get returns the raw value stored under section.key.
func (c *Credentials) Get(section, key string) (any, bool) {
	k := section + "." + key
	if !c.v.IsSet(k) {
		return nil, false
	}
	return c.v.Get(k), true
}
