package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/hiring_analytics/internal/domain"
)

const employeeIndex = "employees"

const employeeMapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "long"},
			"name":          {"type": "text"},
			"hired_at":      {"type": "date"},
			"department_id": {"type": "long"},
			"job_id":        {"type": "long"}
		}
	}
}`

// EmployeeDoc mirrors domain.Employee for ES storage.
type EmployeeDoc struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	HiredAt      time.Time `json:"hired_at"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	JobID        *int64    `json:"job_id,omitempty"`
}

func toDoc(e domain.Employee) EmployeeDoc {
	return EmployeeDoc{ID: e.ID, Name: e.Name, HiredAt: e.HiredAt, DepartmentID: e.DepartmentID, JobID: e.JobID}
}

func (d EmployeeDoc) toEmployee() domain.Employee {
	return domain.Employee{ID: d.ID, Name: d.Name, HiredAt: d.HiredAt, DepartmentID: d.DepartmentID, JobID: d.JobID}
}

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(url string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client}, nil
}

// EnsureIndex creates the employees index with its mapping if it is missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(employeeIndex).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", employeeIndex, err)
	}
	if exists {
		return nil
	}
	if _, err := es.client.CreateIndex(employeeIndex).BodyString(employeeMapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", employeeIndex, err)
	}
	return nil
}

// SearchEmployeesByName performs a full-text match on the employee name.
func (es *ElasticSearchClient) SearchEmployeesByName(ctx context.Context, name string, size int) ([]EmployeeDoc, error) {
	searchResult, err := es.client.Search().
		Index(employeeIndex).
		Query(elastic.NewMatchQuery("name", name)).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	employees := make([]EmployeeDoc, 0, len(searchResult.Hits.Hits))
	for _, item := range searchResult.Hits.Hits {
		var emp EmployeeDoc
		if err := json.Unmarshal(item.Source, &emp); err != nil {
			continue
		}
		employees = append(employees, emp)
	}

	return employees, nil
}

// BulkIndexEmployees efficiently indexes multiple employees.
func (es *ElasticSearchClient) BulkIndexEmployees(ctx context.Context, employees []EmployeeDoc) error {
	bulkRequest := es.client.Bulk()

	for _, emp := range employees {
		req := elastic.NewBulkIndexRequest().
			Index(employeeIndex).
			Id(strconv.FormatInt(emp.ID, 10)).
			Doc(emp)
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}

	if bulkResponse.Errors {
		// Report the first failed item
		for _, item := range bulkResponse.Items {
			for _, op := range item {
				if op.Error != nil {
					return fmt.Errorf("bulk item failed: %s", op.Error.Reason)
				}
			}
		}
	}

	return nil
}

// IndexEmployees implements domain.EmployeeIndex.
func (es *ElasticSearchClient) IndexEmployees(ctx context.Context, employees []domain.Employee) error {
	docs := make([]EmployeeDoc, len(employees))
	for i, e := range employees {
		docs[i] = toDoc(e)
	}
	return es.BulkIndexEmployees(ctx, docs)
}

// SearchEmployees implements domain.EmployeeIndex.
func (es *ElasticSearchClient) SearchEmployees(ctx context.Context, query string, limit int) ([]domain.Employee, error) {
	docs, err := es.SearchEmployeesByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Employee, len(docs))
	for i, d := range docs {
		out[i] = d.toEmployee()
	}
	return out, nil
}
