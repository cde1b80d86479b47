package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingSize(t *testing.T) {
	n, err := trainingSize(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = trainingSize([]string{"500"})
	require.NoError(t, err)
	assert.Equal(t, 500, n)

	_, err = trainingSize([]string{"-3"})
	assert.Error(t, err)

	_, err = trainingSize([]string{"lots"})
	assert.Error(t, err)

	_, err = trainingSize([]string{"1", "2"})
	assert.Error(t, err)
}

func TestOverridesFrom(t *testing.T) {
	fs := flag.NewFlagSet("digits", flag.ContinueOnError)
	cfgPath := registerFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-config", "train.yaml", "-momentum", "0", "-resize=false", "-lr", "0.01", "-seed", "9", "-format", "idx",
	}))

	o := overridesFrom(fs)

	assert.Equal(t, "train.yaml", *cfgPath)
	require.NotNil(t, o.Momentum)
	assert.Zero(t, *o.Momentum)
	require.NotNil(t, o.Resize)
	assert.False(t, *o.Resize)
	require.NotNil(t, o.LearningRate)
	assert.Equal(t, float32(0.01), *o.LearningRate)
	require.NotNil(t, o.Seed)
	assert.Equal(t, int64(9), *o.Seed)
	require.NotNil(t, o.Format)
	assert.Equal(t, "idx", *o.Format)

	// Flags left out stay unset
	assert.Nil(t, o.DataDir)
	assert.Nil(t, o.Steps)
	assert.Nil(t, o.Optimizer)
	assert.Nil(t, o.LogEvery)
}
