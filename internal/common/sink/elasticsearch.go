package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// ElasticsearchSink bulk-indexes jobs to Elasticsearch
type ElasticsearchSink struct {
	client    *elasticsearch.Client
	indexName string
}

// NewElasticsearchSink creates a new Elasticsearch sink
func NewElasticsearchSink(addresses []string, indexName string) (*ElasticsearchSink, error) {
	if indexName == "" {
		indexName = "jobs"
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	// Check connection
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return &ElasticsearchSink{
		client:    client,
		indexName: indexName,
	}, nil
}

// Name returns the sink name
func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

// Write indexes all jobs with one bulk request
func (s *ElasticsearchSink) Write(ctx context.Context, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	body, err := bulkBody(s.indexName, jobs)
	if err != nil {
		return err
	}

	res, err := s.client.Bulk(bytes.NewReader(body), s.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var bulkRes bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	failed := bulkRes.failures()
	for _, item := range failed {
		log.Error().
			Str("id", item.Index.ID).
			Str("type", item.Index.Error.Type).
			Str("reason", item.Index.Error.Reason).
			Msg("[Elasticsearch] Bulk index error")
	}

	log.Info().Int("jobs", len(jobs)-len(failed)).Str("index", s.indexName).Msg("[Elasticsearch] Indexed jobs")
	return nil
}

// EnsureIndex creates the index with Vietnamese-friendly settings if it doesn't exist
func (s *ElasticsearchSink) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.indexName}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}

	return nil
}

const indexMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"vietnamese_analyzer": {
					"type": "custom",
					"tokenizer": "standard",
					"filter": ["lowercase", "asciifolding"]
				}
			}
		}
	},
	"mappings": {
		"properties": {
			"title": {
				"type": "text",
				"analyzer": "vietnamese_analyzer",
				"fields": {"keyword": {"type": "keyword"}}
			},
			"salary": {"type": "long"},
			"location": {
				"type": "text",
				"analyzer": "vietnamese_analyzer",
				"fields": {"keyword": {"type": "keyword"}}
			},
			"experience": {"type": "keyword"},
			"education": {"type": "keyword"},
			"posted_date": {"type": "date", "format": "yyyy-MM-dd"},
			"skills": {"type": "keyword"},
			"languages": {"type": "keyword"},
			"url": {"type": "keyword"}
		}
	}
}`

// bulkBody builds the NDJSON payload: one action line and one document line per job
func bulkBody(index string, jobs []*domain.Job) ([]byte, error) {
	var buf bytes.Buffer
	for _, job := range jobs {
		meta := map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    docID(job),
			},
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("marshal meta: %w", err)
		}
		docBytes, err := json.Marshal(job)
		if err != nil {
			log.Warn().Err(err).Str("title", job.Title).Msg("[Elasticsearch] Skipping job")
			continue
		}
		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

type bulkItem struct {
	Index struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool       `json:"errors"`
	Items  []bulkItem `json:"items"`
}

func (r bulkResponse) failures() []bulkItem {
	if !r.Errors {
		return nil
	}
	var failed []bulkItem
	for _, item := range r.Items {
		if item.Index.Status >= 400 {
			failed = append(failed, item)
		}
	}
	return failed
}
