package results

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/daryltucker/forest-bench/internal/model"
)

var artifactPattern = regexp.MustCompile(`^test_in:(\d+)_out:(\d+)_proc:(\d+)_rand:(\d+)\.json$`)

// ParseArtifactName extracts the four numeric parameters from a result
// file name such as "test_in:128_out:64_proc:4_rand:0.json".
func ParseArtifactName(name string) (model.TestCase, bool) {
	m := artifactPattern.FindStringSubmatch(name)
	if m == nil {
		return model.TestCase{}, false
	}
	var nums [4]int
	for i := range nums {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return model.TestCase{}, false
		}
		nums[i] = n
	}
	return model.TestCase{
		InputTokens:  nums[0],
		OutputTokens: nums[1],
		Processes:    nums[2],
		RandomTokens: nums[3],
	}, true
}

// ParseCombinationDir splits "<runtime>--<instanceType>--<model...>".
// The model part may itself contain "--"; a trailing .yaml or .yml is
// dropped.
func ParseCombinationDir(name string) (model.Combination, bool) {
	parts := strings.Split(name, "--")
	if len(parts) < 3 {
		return model.Combination{}, false
	}
	modelName := strings.Join(parts[2:], "--")
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(modelName, ext) {
			modelName = strings.TrimSuffix(modelName, ext)
			break
		}
	}
	if parts[0] == "" || parts[1] == "" || modelName == "" {
		return model.Combination{}, false
	}
	return model.Combination{
		Runtime:      parts[0],
		InstanceType: parts[1],
		ModelName:    modelName,
	}, true
}
