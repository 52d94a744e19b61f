package yamlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPolicy = `apiVersion: cilium.io/v2
kind: CiliumNetworkPolicy
metadata:
  name: net-policy-a
  namespace: backend
spec:
  endpointSelector:
    matchLabels:
      app: backend
  ingress:
    - fromEndpoints:
        - matchLabels:
            app: frontend
      toPorts:
        - ports:
            - port: "8080"
              protocol: TCP
`

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	require.NoError(t, Validate(validPolicy))
}

func TestValidateRejectsBrokenDocument(t *testing.T) {
	err := Validate("spec: [unclosed")
	var sErr *SyntaxError
	require.ErrorAs(t, err, &sErr)
	assert.NotEmpty(t, sErr.Detail)
}

func TestValidateIsPure(t *testing.T) {
	// an accepted document stays accepted on re-validation
	require.NoError(t, Validate(validPolicy))
	require.NoError(t, Validate(validPolicy))

	require.Error(t, Validate("spec: [unclosed"))
	require.Error(t, Validate("spec: [unclosed"))
}
