package models

// OllamaEmbedRequest is used to structure the request to the Ollama /api/embed endpoint.
// Input carries the whole batch so a document is embedded in one call.
type OllamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OllamaEmbedResponse is used to parse the embeddings from the Ollama API response.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}
