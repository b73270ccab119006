package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

type OSClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewOSClient(url string) *OSClient {
	return &OSClient{BaseURL: url, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// BulkDoc: _bulk 요청 한 건 (index 액션)
type BulkDoc struct {
	Index string
	ID    string
	Doc   interface{}
}

// BulkResult: _bulk 응답 요약
type BulkResult struct {
	Indexed int
	Failed  int
}

// Bulk: NDJSON 본문으로 _bulk 색인. 문서 단위 실패는 Failed로 집계
func (c *OSClient) Bulk(ctx context.Context, docs []BulkDoc) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}
	var body bytes.Buffer
	for _, d := range docs {
		action := map[string]interface{}{"_index": d.Index}
		if d.ID != "" {
			action["_id"] = d.ID
		}
		meta, _ := json.Marshal(map[string]interface{}{"index": action})
		body.Write(meta)
		body.WriteByte('\n')
		src, err := json.Marshal(d.Doc)
		if err != nil {
			return BulkResult{}, errors.Wrapf(err, "encode bulk doc for %s", d.Index)
		}
		body.Write(src)
		body.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/_bulk", &body)
	if err != nil {
		return BulkResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return BulkResult{}, errors.Wrap(err, "OpenSearch bulk request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return BulkResult{}, fmt.Errorf("OpenSearch bulk failed: %d %s", resp.StatusCode, b)
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return BulkResult{}, errors.Wrap(err, "decode bulk response")
	}
	var out BulkResult
	for _, item := range result.Items {
		for _, r := range item {
			if r.Status >= 300 {
				out.Failed++
			} else {
				out.Indexed++
			}
		}
	}
	return out, nil
}

func (c *OSClient) Put(ctx context.Context, index, docID string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/_doc/%s", c.BaseURL, index, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("OpenSearch PUT failed: %s", body)
	}
	return nil
}

func (c *OSClient) Count(ctx context.Context, index string, query interface{}) (int, error) {
	data, _ := json.Marshal(map[string]interface{}{"query": query})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+index+"/_count", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("count failed: %d", resp.StatusCode)
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.Count, nil
}
