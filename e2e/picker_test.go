//go:build e2e && unix

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fruits = `[
	{"id": "a", "text": "Apple"},
	{"id": "b", "text": "Banana"},
	{"id": "c", "text": "Cherry"}
]`

func TestSingleSelectPrintsChoice(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	data := tf.WriteFile("fruits.json", fruits)
	require.NoError(t, tf.StartApp("--data", data, "--title", "Fruit"))
	require.True(t, tf.SeePlain("Fruit"), "should show the title")
	require.True(t, tf.SeePlain("Select an option"), "should show the placeholder")

	tf.SendKeys(KeyTab)
	require.True(t, tf.SeePlain("Cherry"), "dropdown lists the options")

	tf.Type("ban")
	tf.SendKeys(KeyEnter)
	require.True(t, tf.SeePlain("Banana ▾"), "trigger shows the selection")

	tf.SendKeys(KeyCtrlC)
	if err := tf.WaitExit(3 * time.Second); err != nil {
		tf.DumpTailOnFail(t, "single-select", 4096)
		t.Fatal(err)
	}

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(tf.TailAfterExit()), &got))
	assert.Equal(t, "b", got["id"])
	assert.Equal(t, "Banana", got["text"])
}

func TestMultipleSelectKeepsOrder(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	data := tf.WriteFile("fruits.json", fruits)
	require.NoError(t, tf.StartApp("--data", data, "--multiple", "--keep-open"))
	require.True(t, tf.SeePlain("Select an option"))

	tf.SendKeys(KeyTab, KeyDown, KeyDown, KeyEnter, KeyUp, KeyUp, KeyEnter)
	require.True(t, tf.SeePlain("[x]"))

	tf.SendKeys(KeyCtrlC)
	require.NoError(t, tf.WaitExit(3*time.Second))

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(tf.TailAfterExit()), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0]["id"])
	assert.Equal(t, "a", got[1]["id"])
}

func TestRemoteSearch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		json.NewEncoder(w).Encode([]map[string]string{{"id": "r-" + q, "text": "Result " + q}})
	}))
	defer srv.Close()

	tf := NewTUITest(t)
	defer tf.Cleanup()

	require.NoError(t, tf.StartApp("--url", srv.URL, "--min-length", "2", "--delay", "50ms"))
	require.True(t, tf.SeePlain("Select an option"))

	tf.SendKeys(KeyTab)
	tf.Type("x")
	require.True(t, tf.SeePlain("Please enter 2 or more characters"))

	tf.Type("y")
	require.True(t, tf.SeePlain("Result xy"))

	tf.SendKeys(KeyEnter, KeyCtrlC)
	require.NoError(t, tf.WaitExit(3*time.Second))

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(tf.TailAfterExit()), &got))
	assert.Equal(t, "r-xy", got["id"])
}

func TestRequiredRefusesClear(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	data := tf.WriteFile("fruits.json", fruits)
	require.NoError(t, tf.StartApp("--data", data, "--required", "--select", "c"))
	require.True(t, tf.SeePlain("Cherry"))

	tf.SendKeys(KeyCtrlX)
	require.True(t, tf.SeePlain("A value is required"))

	tf.SendKeys(KeyCtrlC)
	require.NoError(t, tf.WaitExit(3*time.Second))

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(tf.TailAfterExit()), &got))
	assert.Equal(t, "c", got["id"])
}

func TestExitWithoutSelection(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	data := tf.WriteFile("fruits.json", fruits)
	require.NoError(t, tf.StartApp("--data", data))
	require.True(t, tf.SeePlain("Select an option"))

	tf.SendKeys(KeyEsc, KeyCtrlC)
	require.NoError(t, tf.WaitExit(3*time.Second))
	assert.Equal(t, "null", tf.TailAfterExit())
}
