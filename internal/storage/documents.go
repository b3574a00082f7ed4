package storage

import (
	"bytes"
	"context"
	"fmt"
	"phishdetector/internal/dataset"
	"phishdetector/internal/estimator"

	"gopkg.in/yaml.v2"
)

func LoadYAML(ctx context.Context, store ObjectStore, key string, out interface{}) error {
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing yaml %s: %w", store.Location(key), err)
	}
	return nil
}

func SaveYAML(ctx context.Context, store ObjectStore, key string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding yaml for %s: %w", store.Location(key), err)
	}
	return store.PutObject(ctx, key, bytes.NewReader(data))
}

func LoadFrame(ctx context.Context, store ObjectStore, key string) (*dataset.Frame, error) {
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	frame, err := dataset.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error reading dataset %s: %w", store.Location(key), err)
	}
	return frame, nil
}

func SaveFrame(ctx context.Context, store ObjectStore, key string, frame *dataset.Frame) error {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, frame); err != nil {
		return fmt.Errorf("error encoding dataset %s: %w", store.Location(key), err)
	}
	return store.PutObject(ctx, key, &buf)
}

func LoadBundle(ctx context.Context, store ObjectStore, key string) (*estimator.Bundle, error) {
	data, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	bundle, err := estimator.DecodeBundle(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error loading model %s: %w", store.Location(key), err)
	}
	return bundle, nil
}

func SaveBundle(ctx context.Context, store ObjectStore, key string, bundle *estimator.Bundle) error {
	var buf bytes.Buffer
	if err := estimator.EncodeBundle(&buf, bundle); err != nil {
		return fmt.Errorf("error saving model %s: %w", store.Location(key), err)
	}
	return store.PutObject(ctx, key, &buf)
}
