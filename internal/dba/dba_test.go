package dba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// recorder captures what the façade hands to the provisioner.
type recorder struct {
	clusters []string
	opts     []ClusterOptions
	sandbox  []string
}

func (r *recorder) CreateCluster(name string, opts ClusterOptions) error {
	r.clusters = append(r.clusters, name)
	r.opts = append(r.opts, opts)
	return nil
}
func (r *recorder) DropMetadataSchema() error { return nil }
func (r *recorder) Sandbox(op string, port int) error {
	r.sandbox = append(r.sandbox, op)
	return nil
}
func (r *recorder) ConfigureLocalInstance(string) error { return nil }
func (r *recorder) RebootCluster(string) error          { return nil }

func str(s string) shcore.Value { return shcore.StringValue(s) }

func options(pairs ...any) shcore.Value {
	m := shcore.NewMapValue()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(shcore.Value))
	}
	return shcore.NewMap(m)
}

func TestDba_MemberSurface(t *testing.T) {
	d := New(nil)
	members := d.Members()

	assert.Len(t, members, 14)
	want := []string{
		"createCluster", "deleteSandboxInstance", "deploySandboxInstance",
		"getCluster", "help", "killSandboxInstance", "resetSession",
		"startSandboxInstance", "checkInstanceConfiguration",
		"stopSandboxInstance", "dropMetadataSchema",
		"configureLocalInstance", "verbose", "rebootClusterFromCompleteOutage",
	}
	assert.ElementsMatch(t, want, members)
}

func TestDba_CreateCluster(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	v, err := d.Call("createCluster", []shcore.Value{str("devCluster")})
	require.NoError(t, err)

	obj, err := v.AsObject()
	require.NoError(t, err)
	assert.Equal(t, "<Cluster:devCluster>", obj.Repr())
	assert.Equal(t, []string{"devCluster"}, rec.clusters)
}

func TestDba_CreateCluster_EmptyName(t *testing.T) {
	d := New(&recorder{})

	_, err := d.Call("createCluster", []shcore.Value{str("")})
	require.Error(t, err)
	assert.Equal(t, "Dba.createCluster: The Cluster name cannot be empty", err.Error())
}

func TestDba_CreateCluster_Options(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	_, err := d.Call("createCluster", []shcore.Value{
		str("c"),
		options("memberSslMode", str("REQUIRED"), "ipWhitelist", str("10.0.0.0/8")),
	})
	require.NoError(t, err)
	assert.Equal(t, ClusterOptions{MemberSSLMode: "REQUIRED", IPWhitelist: "10.0.0.0/8"}, rec.opts[0])
}

func TestDba_CreateCluster_BadSslMode(t *testing.T) {
	d := New(&recorder{})

	_, err := d.Call("createCluster", []shcore.Value{
		str("c"), options("memberSslMode", str("BAD")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"Invalid value for memberSslMode option. Supported values: AUTO,DISABLED,REQUIRED.")
}

func TestDba_CreateCluster_SslModeVersusAdopt(t *testing.T) {
	d := New(&recorder{})

	_, err := d.Call("createCluster", []shcore.Value{
		str("c"),
		options("memberSslMode", str("AUTO"), "adoptFromGR", shcore.BoolValue(true)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"Cannot use memberSslMode option if adoptFromGR is set to true.")

	// adoptFromGR false does not conflict.
	_, err = d.Call("createCluster", []shcore.Value{
		str("c"),
		options("memberSslMode", str("AUTO"), "adoptFromGR", shcore.BoolValue(false)),
	})
	assert.NoError(t, err)
}

func TestDba_CreateCluster_UnknownOptions(t *testing.T) {
	d := New(&recorder{})

	_, err := d.Call("createCluster", []shcore.Value{
		str("c"),
		options("bogus", str("x"), "другой", str("y")),
	})
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
	assert.Contains(t, err.Error(), "Invalid values in the options: ")
	assert.Contains(t, err.Error(), "bogus")
}

func TestDba_CreateCluster_EmptyWhitelist(t *testing.T) {
	d := New(&recorder{})

	_, err := d.Call("createCluster", []shcore.Value{
		str("c"), options("ipWhitelist", str("")),
	})
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
}

func TestDba_SandboxValidation(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	_, err := d.Call("deploySandboxInstance", []shcore.Value{shcore.IntValue(3310)})
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy"}, rec.sandbox)

	_, err = d.Call("killSandboxInstance", []shcore.Value{shcore.IntValue(0)})
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))

	_, err = d.Call("stopSandboxInstance", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid number of arguments in Dba.stopSandboxInstance, expected 1 to 2 but got 0")
}

func TestDba_VerboseProperty(t *testing.T) {
	d := New(nil)
	v, err := d.GetMember("verbose")
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.False(t, b)
}

func TestDba_NullProvisioner(t *testing.T) {
	d := New(nil)

	_, err := d.Call("createCluster", []shcore.Value{str("c")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dba.createCluster: ")
}
