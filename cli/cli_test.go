package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/config"
	"github.com/RosShpakovskiy/bc2-as3/store"
)

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	assert.True(t, all.AllowAllOrigins)
	assert.Empty(t, all.AllowOrigins)

	listed := corsConfig([]string{"http://localhost:3000"})
	assert.False(t, listed.AllowAllOrigins)
	assert.Equal(t, []string{"http://localhost:3000"}, listed.AllowOrigins)
	assert.Contains(t, listed.AllowMethods, "POST")
}

func TestOpenStore(t *testing.T) {
	s, err := openStore(context.Background(), config.StoreConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s, err = openStore(context.Background(), config.StoreConfig{Type: "bolt", BoltPath: t.TempDir() + "/idx/constitution.db"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = openStore(context.Background(), config.StoreConfig{Type: "sqlite"})
	assert.Error(t, err)
}

func TestBuildApp_MemoryStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Type = "memory"
	cfg.Document.Path = t.TempDir() + "/constitution.txt"

	a, err := buildApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.assistant)
	assert.NotNil(t, a.ingest)
	assert.Equal(t, cfg.Document.Path, a.ingest.Path())
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := newEmbedder(context.Background(), config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = newChatModel(context.Background(), config.LLMConfig{Provider: "openai"})
	assert.Error(t, err)
}

func TestWriteDefaultConfig(t *testing.T) {
	t.Setenv("CONSTITUTION_PDF", "")
	t.Setenv("CHROMA_URL", "")
	t.Setenv("OLLAMA_HOST", "")

	path := filepath.Join(t.TempDir(), "deploy", config.DefaultFileName)
	require.NoError(t, writeDefaultConfig(path, false))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	require.NoError(t, os.WriteFile(path, []byte("retrieve:\n  top_k: 9\n"), 0o644))
	err = writeDefaultConfig(path, false)
	assert.ErrorContains(t, err, "already exists")
	edited, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, edited.Retrieve.TopK)

	require.NoError(t, writeDefaultConfig(path, true))
	restored, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Retrieve.TopK)
}

func TestConfigInitSkipsConfigLoad(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"config", "init"})
	require.NoError(t, err)
	assert.Equal(t, configInitCmd, cmd)
	require.NotNil(t, configCmd.PersistentPreRunE)
	assert.NoError(t, configCmd.PersistentPreRunE(cmd, nil))
}
