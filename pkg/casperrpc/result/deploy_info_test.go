package result

import (
	"encoding/json"
	"testing"

	"github.com/casperlabs/casper-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestDeployStateJSON(t *testing.T) {
	for _, s := range []DeployState{Undefined, Pending, Processed, Finalized, Discarded} {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		var actual DeployState
		require.NoError(t, json.Unmarshal(data, &actual))
		require.Equal(t, s, actual)
	}

	var s DeployState
	require.NoError(t, json.Unmarshal([]byte(`1`), &s))
	require.Equal(t, Pending, s)
	require.NoError(t, json.Unmarshal([]byte(`"finalized"`), &s))
	require.Equal(t, Finalized, s)
	require.Error(t, json.Unmarshal([]byte(`9`), &s))
	require.Error(t, json.Unmarshal([]byte(`"LOST"`), &s))
	require.Error(t, json.Unmarshal([]byte(`{}`), &s))

	_, err := json.Marshal(DeployState(9))
	require.Error(t, err)
	require.Equal(t, "PENDING", Pending.String())
	require.True(t, Discarded.IsTerminal())
	require.False(t, Processed.IsTerminal())
}

func TestDeployInfo(t *testing.T) {
	block := util.Uint256{0xbe, 0xef}
	data := `{"status":{"state":"PROCESSED"},"processing_results":[` +
		`{"block_hash":"` + block.StringBE() + `","cost":100,"is_error":true,"error_message":"Exit code: 1"},` +
		`{"block_hash":"` + block.StringBE() + `","cost":100,"is_error":false}]}`
	var info DeployInfo
	require.NoError(t, json.Unmarshal([]byte(data), &info))
	require.Nil(t, info.Deploy)
	require.Equal(t, Processed, info.Status.State)
	require.Len(t, info.ProcessingResults, 2)
	require.Equal(t, block, info.ProcessingResults[0].BlockHash)

	msg, ok := info.FirstError()
	require.True(t, ok)
	require.Equal(t, "Exit code: 1", msg)

	info.ProcessingResults = info.ProcessingResults[1:]
	_, ok = info.FirstError()
	require.False(t, ok)
	info.ProcessingResults = nil
	_, ok = info.FirstError()
	require.False(t, ok)
}
