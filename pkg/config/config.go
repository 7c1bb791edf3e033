package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Cfg_S3 struct {
	Name            string `toml:"name"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyId     string `toml:"accessKeyId"`
	SecretAccessKey string `toml:"secretAccessKey"`
	UseSSL          bool   `toml:"useSSL"`
}

type Cfg_Sftp struct {
	Address    string `toml:"address"`
	User       string `toml:"user"`
	PrivateKey string `toml:"privatekey"`
}

type Cfg_Fetch struct {
	Timeout   duration `toml:"timeout"`
	CacheSize int      `toml:"cachesize"`
	CacheTTL  duration `toml:"cachettl"`
}

type Config struct {
	Logfile    string    `toml:"logfile"`
	Loglevel   string    `toml:"loglevel"`
	FFMpeg     string    `toml:"ffmpeg"`
	FFProbe    string    `toml:"ffprobe"`
	TempFolder string    `toml:"tempfolder"`
	Fetch      Cfg_Fetch `toml:"fetch"`
	S3         []Cfg_S3  `toml:"s3"`
	Sftp       Cfg_Sftp  `toml:"sftp"`
}

func LoadConfig(fp string) Config {
	var conf Config
	_, err := toml.DecodeFile(fp, &conf)
	if err != nil {
		log.Fatalln("Error on loading config: ", err)
	}
	if conf.TempFolder != "" {
		conf.TempFolder = filepath.Clean(conf.TempFolder)
	}
	if conf.FFMpeg == "" {
		conf.FFMpeg = "ffmpeg"
	}
	if conf.FFProbe == "" {
		conf.FFProbe = "ffprobe"
	}
	return conf
}
