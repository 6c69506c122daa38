package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type GeminiProvider struct {
	ApiKey string
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey: apiKey,
	}
}

func (p *GeminiProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	modelName := "text-embedding-004"

	geminiReq := EmbeddingRequest{
		Model: modelName,
		Content: EmbeddingRequestContent{
			Parts: []EmbeddingRequestContentPart{
				{
					Text: text,
				},
			},
		},
		TaskType: taskType,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		modelName,
	)

	resByte, err := p.post(endpoint, geminiReqJson)
	if err != nil {
		return nil, err
	}

	var resEmbedding EmbeddingResponse
	err = json.Unmarshal(resByte, &resEmbedding)
	if err != nil {
		return nil, err
	}

	return &resEmbedding, nil
}

// GenerateBatch uses batchEmbedContents, splitting inputs at BatchLimit per
// call as the API caps request sizes.
func (p *GeminiProvider) GenerateBatch(texts []string, taskType string) ([][]float32, error) {
	modelName := "text-embedding-004"
	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:batchEmbedContents",
		modelName,
	)

	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += BatchLimit {
		end := start + BatchLimit
		if end > len(texts) {
			end = len(texts)
		}

		batch := batchEmbeddingRequest{}
		for _, text := range texts[start:end] {
			batch.Requests = append(batch.Requests, EmbeddingRequest{
				Model: "models/" + modelName,
				Content: EmbeddingRequestContent{
					Parts: []EmbeddingRequestContentPart{{Text: text}},
				},
				TaskType: taskType,
			})
		}

		reqJson, err := json.Marshal(batch)
		if err != nil {
			return nil, err
		}

		resByte, err := p.post(endpoint, reqJson)
		if err != nil {
			return nil, err
		}

		var batchRes batchEmbeddingResponse
		if err := json.Unmarshal(resByte, &batchRes); err != nil {
			return nil, err
		}
		if len(batchRes.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini batch returned %d embeddings for %d inputs", len(batchRes.Embeddings), end-start)
		}

		for _, e := range batchRes.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}

	return vectors, nil
}

func (p *GeminiProvider) post(endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(
		"POST",
		endpoint,
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	return resByte, nil
}
