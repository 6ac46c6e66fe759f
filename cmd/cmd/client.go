package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/types"
	"github.com/heyfey/gpujob/pkg/jobmaster"
	"github.com/heyfey/gpujob/pkg/service/service"
)

// DefaultServer is the job service on the local host.
var DefaultServer = "http://localhost:" + config.Port

// Client talks to the job service.
type Client struct {
	server     string
	httpClient *http.Client
}

func NewClient(server string) *Client {
	return &Client{
		server:     strings.TrimSuffix(server, "/"),
		httpClient: &http.Client{},
	}
}

func (c *Client) jobURL(name string, sub ...string) string {
	u := c.server + config.EntryPoint + "/" + url.PathEscape(name)
	for _, s := range sub {
		u += "/" + s
	}
	return u
}

func (c *Client) CreateJob(d jobmaster.JobDescriptor) (service.CreateJobResponse, error) {
	resp := service.CreateJobResponse{}
	data, err := json.Marshal(d)
	if err != nil {
		return resp, err
	}
	err = c.do(http.MethodPost, c.server+config.EntryPoint, data, http.StatusCreated, &resp)
	return resp, err
}

func (c *Client) GetJobStatus(name string) (types.JobStatusType, error) {
	resp := service.JobStatusResponse{}
	err := c.do(http.MethodGet, c.jobURL(name, "status"), nil, http.StatusOK, &resp)
	return resp.Status, err
}

func (c *Client) GetJobPods(name string) ([]types.PodObservation, error) {
	pods := []types.PodObservation{}
	err := c.do(http.MethodGet, c.jobURL(name, "pods"), nil, http.StatusOK, &pods)
	return pods, err
}

func (c *Client) ListJobs() ([]jobmaster.JobSummary, error) {
	jobs := []jobmaster.JobSummary{}
	err := c.do(http.MethodGet, c.server+config.EntryPoint, nil, http.StatusOK, &jobs)
	return jobs, err
}

func (c *Client) DeleteJob(name string) error {
	resp := service.DeleteJobResponse{}
	return c.do(http.MethodDelete, c.jobURL(name), nil, http.StatusOK, &resp)
}

func (c *Client) ListEvents() ([]jobmaster.EventRecord, error) {
	events := []jobmaster.EventRecord{}
	err := c.do(http.MethodGet, c.server+"/events", nil, http.StatusOK, &events)
	return events, err
}

// do sends a request and decodes the response into v. Any other code than
// want is returned as an error carrying the service's message.
func (c *Client) do(method string, u string, data []byte, want int, v interface{}) error {
	req, err := http.NewRequest(method, u, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != want {
		e := service.ErrorResponse{}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, u, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, u, resp.StatusCode)
	}
	return json.Unmarshal(body, v)
}
