// Package config defines the server and client binaries' layered
// configuration (flags and environment variables), bound through viper the
// way the retrieved corpus's own serve command binds its flags. No config
// file is read.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ServerConfig holds everything pirserver needs to start: where the
// corpus lives, which addresses to bind, and how often to rebuild.
type ServerConfig struct {
	CorpusDir        string
	EmbeddingAddr    string
	ArticleAddr      string
	PlaintextModulus uint64
	RebuildInterval  string
}

// BindServerFlags registers pirserver's flags on cmd and binds them into
// viper under the "server.*" namespace, so PIR_SERVER_* environment
// variables can override them.
func BindServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("corpus-dir", "./corpus", "directory containing articles/ and embeddings/")
	cmd.Flags().String("embedding-addr", "127.0.0.1:8888", "embeddings endpoint listen address")
	cmd.Flags().String("article-addr", "127.0.0.1:8889", "documents endpoint listen address")
	cmd.Flags().Uint64("plaintext-modulus-bits", 17, "log2 of the plaintext modulus p")
	cmd.Flags().String("rebuild-interval", "1m", "how often to re-read the corpus directory")

	_ = viper.BindPFlag("server.corpus_dir", cmd.Flags().Lookup("corpus-dir"))
	_ = viper.BindPFlag("server.embedding_addr", cmd.Flags().Lookup("embedding-addr"))
	_ = viper.BindPFlag("server.article_addr", cmd.Flags().Lookup("article-addr"))
	_ = viper.BindPFlag("server.plaintext_modulus_bits", cmd.Flags().Lookup("plaintext-modulus-bits"))
	_ = viper.BindPFlag("server.rebuild_interval", cmd.Flags().Lookup("rebuild-interval"))

	viper.SetEnvPrefix("pir_server")
	viper.AutomaticEnv()
}

// LoadServerConfig reads the bound values back out of viper after flag
// parsing.
func LoadServerConfig() (ServerConfig, error) {
	bits := viper.GetUint64("server.plaintext_modulus_bits")
	if bits == 0 || bits >= 64 {
		return ServerConfig{}, fmt.Errorf("config: plaintext-modulus-bits=%d must satisfy 0 < bits < 64", bits)
	}

	return ServerConfig{
		CorpusDir:        viper.GetString("server.corpus_dir"),
		EmbeddingAddr:    viper.GetString("server.embedding_addr"),
		ArticleAddr:      viper.GetString("server.article_addr"),
		PlaintextModulus: uint64(1) << bits,
		RebuildInterval:  viper.GetString("server.rebuild_interval"),
	}, nil
}

// ClientConfig holds everything pirclient needs to connect.
type ClientConfig struct {
	EmbeddingURL    string
	ArticleURL      string
	RefreshInterval string
}

// BindClientFlags registers pirclient's flags and binds them into viper
// under "client.*".
func BindClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("embedding-url", "http://127.0.0.1:8888", "embeddings endpoint base URL")
	cmd.Flags().String("article-url", "http://127.0.0.1:8889", "documents endpoint base URL")
	cmd.Flags().String("refresh-interval", "1m", "how often to pull updated public data")

	_ = viper.BindPFlag("client.embedding_url", cmd.Flags().Lookup("embedding-url"))
	_ = viper.BindPFlag("client.article_url", cmd.Flags().Lookup("article-url"))
	_ = viper.BindPFlag("client.refresh_interval", cmd.Flags().Lookup("refresh-interval"))

	viper.SetEnvPrefix("pir_client")
	viper.AutomaticEnv()
}

// LoadClientConfig reads the bound values back out of viper.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		EmbeddingURL:    viper.GetString("client.embedding_url"),
		ArticleURL:      viper.GetString("client.article_url"),
		RefreshInterval: viper.GetString("client.refresh_interval"),
	}
}
