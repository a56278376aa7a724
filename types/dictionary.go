package types

// DictionaryItem is a single libav option (e.g. "stimeout" -> "20000000").
type DictionaryItem struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type DictionaryItems []DictionaryItem

// Deduplicate keeps only the last value of every key. The position of a key
// is the position of its last occurrence.
func (s DictionaryItems) Deduplicate() DictionaryItems {
	last := make(map[string]int, len(s))
	for idx, item := range s {
		last[item.Key] = idx
	}
	result := make(DictionaryItems, 0, len(last))
	for idx, item := range s {
		if last[item.Key] != idx {
			continue
		}
		result = append(result, item)
	}
	return result
}

// Get returns the last value set for the key.
func (s DictionaryItems) Get(key string) (string, bool) {
	for idx := len(s) - 1; idx >= 0; idx-- {
		if s[idx].Key == key {
			return s[idx].Value, true
		}
	}
	return "", false
}

// Without returns a copy with every occurrence of the keys removed.
func (s DictionaryItems) Without(keys ...string) DictionaryItems {
	result := make(DictionaryItems, 0, len(s))
	for _, item := range s {
		drop := false
		for _, key := range keys {
			if item.Key == key {
				drop = true
				break
			}
		}
		if !drop {
			result = append(result, item)
		}
	}
	return result
}

func (s DictionaryItems) Clone() DictionaryItems {
	if s == nil {
		return nil
	}
	result := make(DictionaryItems, len(s))
	copy(result, s)
	return result
}
