package resty

import "context"

type Client struct{}

type Request struct{}

type Response struct{}

func New() *Client { return &Client{} }

func (c *Client) R() *Request { return &Request{} }

func (r *Request) SetContext(ctx context.Context) *Request { return r }

func (r *Request) SetQueryParam(param, value string) *Request { return r }

func (r *Request) SetResult(res interface{}) *Request { return r }

func (r *Request) Get(url string) (*Response, error) { return &Response{}, nil }

func (r *Request) Post(url string) (*Response, error) { return &Response{}, nil }

func (r *Request) Delete(url string) (*Response, error) { return &Response{}, nil }
