package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite

	dir string
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigTestSuite) writeFile(content string) string {
	path := filepath.Join(s.dir, "config.json")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ConfigTestSuite) TestDefault() {
	c, err := Load("httpserver", nil, io.Discard)
	s.Require().NoError(err)
	s.Equal(Default(), c)
	s.Equal("127.0.0.1:4221", c.Addr)
	s.Empty(c.Directory)
}

func (s *ConfigTestSuite) TestFlags() {
	c, err := Load("httpserver", []string{
		"--directory", s.dir,
		"--addr", "0.0.0.0:8080",
		"--log-level", "debug",
		"--read-timeout", "5s",
		"--write-timeout", "1m",
		"--max-connections", "64",
	}, io.Discard)
	s.Require().NoError(err)

	s.Equal(Config{
		Addr:           "0.0.0.0:8080",
		Directory:      s.dir,
		LogLevel:       slog.LevelDebug,
		ReadTimeout:    Duration(5 * time.Second),
		WriteTimeout:   Duration(time.Minute),
		MaxConnections: 64,
	}, c)
}

func (s *ConfigTestSuite) TestFile() {
	path := s.writeFile(`{
		"addr": "127.0.0.1:9000",
		"directory": "` + s.dir + `",
		"log_level": "WARN",
		"read_timeout": "2s",
		"max_connections": 8
	}`)

	c, err := Load("httpserver", []string{"--config", path}, io.Discard)
	s.Require().NoError(err)

	s.Equal(Config{
		Addr:           "127.0.0.1:9000",
		Directory:      s.dir,
		LogLevel:       slog.LevelWarn,
		ReadTimeout:    Duration(2 * time.Second),
		MaxConnections: 8,
	}, c)
}

func (s *ConfigTestSuite) TestFlagsOverrideFile() {
	path := s.writeFile(`{"addr": "127.0.0.1:9000", "read_timeout": "2s"}`)

	c, err := Load("httpserver", []string{"--addr", "127.0.0.1:9001", "--config", path}, io.Discard)
	s.Require().NoError(err)

	s.Equal("127.0.0.1:9001", c.Addr)
	s.Equal(Duration(2*time.Second), c.ReadTimeout)
}

func (s *ConfigTestSuite) TestLoadFailures() {
	testcases := []struct {
		desc    string
		args    []string
		wantErr error
	}{
		{
			desc: "unknown flag",
			args: []string{"--port", "80"},
		},
		{
			desc: "missing config file",
			args: []string{"--config", filepath.Join(s.dir, "missing.json")},
		},
		{
			desc: "malformed config file",
			args: []string{"--config", s.writeFile(`{"addr": `)},
		},
		{
			desc: "malformed duration",
			args: []string{"--config", s.writeFile(`{"read_timeout": 5}`)},
		},
		{
			desc:    "negative timeout",
			args:    []string{"--read-timeout", "-1s"},
			wantErr: ErrNegativeTimeout,
		},
		{
			desc:    "empty address",
			args:    []string{"--addr", ""},
			wantErr: ErrNoAddr,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := Load("httpserver", tc.args, io.Discard)
			s.Error(err)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
			}
		})
	}
}

func (s *ConfigTestSuite) TestLoadUnusableDirectory() {
	missing := filepath.Join(s.dir, "missing")

	c, err := Load("httpserver", []string{"--directory", missing}, io.Discard)
	s.Require().NoError(err)
	s.Equal(missing, c.Directory)
}

func (s *ConfigTestSuite) TestCheckDirectory() {
	notADir := filepath.Join(s.dir, "file")
	s.Require().NoError(os.WriteFile(notADir, nil, 0o644))

	testcases := []struct {
		desc    string
		dir     string
		wantErr error
	}{
		{
			desc: "existing directory",
			dir:  s.dir,
		},
		{
			desc:    "missing directory",
			dir:     filepath.Join(s.dir, "missing"),
			wantErr: os.ErrNotExist,
		},
		{
			desc:    "directory is a file",
			dir:     notADir,
			wantErr: ErrNotADirectory,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			err := CheckDirectory(tc.dir)
			if tc.wantErr == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tc.wantErr)
		})
	}
}

func (s *ConfigTestSuite) TestDurationJSON() {
	var c Config
	s.Require().NoError(c.Decode(strings.NewReader(`{"write_timeout": "150ms"}`)))
	s.Equal(Duration(150*time.Millisecond), c.WriteTimeout)

	b, err := json.Marshal(c.WriteTimeout)
	s.Require().NoError(err)
	s.Equal(`"150ms"`, string(b))
}
