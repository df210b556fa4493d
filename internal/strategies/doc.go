// Package strategies provides ready-made snapshot formats.
//
//	Lines()          plain text, unified diff            .txt
//	Description[V]() %+v rendering via Lines             .txt
//	JSON[V]()        canonical JSON, unified diff        .json
//	YAML[V]()        YAML, semantic match then diff      .yaml
//	TOML[V]()        TOML, semantic match then diff      .toml
//	Msgpack[V]()     MessagePack, byte-exact             .msgpack
//	CUE[V]()         concrete CUE, semantic match        .cue
//	Image(precision) PNG, pixel threshold                .png
//
// Every strategy is a plain snapshot.Strategy value and can be adapted to
// other input types with snapshot.Pullback.
package strategies
